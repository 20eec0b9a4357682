package encounters

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"holonet.gg/v1/encounter-builder/src/object"
)

// LoadDraft reads the saved selection. A missing file starts a new draft.
func LoadDraft(path string) (Draft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDraft(), nil
		}
		return NewDraft(), fmt.Errorf("read draft: %w", err)
	}

	var draft Draft
	if err := msgpack.Unmarshal(data, &draft); err != nil {
		return NewDraft(), fmt.Errorf("decode draft %s: %w", path, err)
	}
	if draft.ID == "" {
		draft.ID = uuid.NewString()
	}
	return draft, nil
}

func SaveDraft(path string, draft Draft) error {
	data, err := msgpack.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func NewDraft() Draft {
	return Draft{ID: uuid.NewString()}
}

func (d Draft) Encounter() Encounter {
	mobs := make([]int, len(d.Ships))
	for i, ship := range d.Ships {
		mobs[i] = ship.ID
	}
	return Encounter{Name: d.Name, Notes: d.Notes, Mobs: mobs}
}

// Records returns the selection as table records.
func (d Draft) Records() []object.Mapping {
	records := make([]object.Mapping, len(d.Ships))
	for i, ship := range d.Ships {
		records[i] = object.Mapping{"id": ship.ID, "name": ship.Name, "model": ship.Model}
	}
	return records
}

// ShipFromRecord picks the fields a draft keeps out of a starship record.
func ShipFromRecord(record object.Mapping) Ship {
	ship := Ship{}
	switch id := record["id"].(type) {
	case float64:
		ship.ID = int(id)
	case int:
		ship.ID = id
	}
	ship.Name, _ = record["name"].(string)
	ship.Model, _ = record["model"].(string)
	return ship
}

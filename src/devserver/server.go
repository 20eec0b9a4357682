package devserver

import (
	"bytes"
	"context"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"holonet.gg/v1/encounter-builder/src/build"
)

// Options configure the development asset server.
type Options struct {
	BuildDir  string
	StaticURL string
	Pages     build.ApplicationPageMap
	Logger    *zap.Logger
}

// Server serves the build output the way the production static host
// lays it out, plus a couple of endpoints describing the current build.
type Server struct {
	app    *fiber.App
	opts   Options
	logger *zap.Logger
}

type bundles struct {
	Page    string   `json:"page"`
	Scripts []string `json:"scripts"`
	Styles  []string `json:"styles"`
}

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.StaticURL == "" {
		opts.StaticURL = "/collectstatic/"
	}
	if opts.Pages == nil {
		opts.Pages = build.ApplicationPageMap{}
	}

	app := fiber.New(fiber.Config{
		AppName:               "Encounters dev server",
		GETOnly:               true,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		DisableStartupMessage: true,
	})
	s := &Server{app: app, opts: opts, logger: opts.Logger}

	app.Get("/__pages", s.pages)
	app.Get("/__bundles/:app/:page", s.bundles)
	app.Static(s.Prefix(), opts.BuildDir)
	return s
}

// Prefix is the url path the build directory is served under.
func (s *Server) Prefix() string {
	return strings.TrimSuffix(s.opts.StaticURL+build.BuildPath, "/")
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	s.logger.Info("serving build output",
		zap.String("addr", addr),
		zap.String("dir", s.opts.BuildDir),
		zap.String("prefix", s.Prefix()))
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) pages(c *fiber.Ctx) error {
	return c.JSON(s.opts.Pages)
}

func (s *Server) bundles(c *fiber.Ctx) error {
	app, page := c.Params("app"), c.Params("page")
	if !s.opts.Pages.Includes(app, page) {
		return fiber.NewError(fiber.StatusNotFound, "page not in current build: "+app+build.PageDelimiter+page)
	}
	frontEndPath := app + "/" + page

	if c.Query("format") == "html" {
		var buf bytes.Buffer
		ctx := c.UserContext()
		if err := build.BundleStyles(s.opts.StaticURL, frontEndPath).Render(ctx, &buf); err != nil {
			return err
		}
		buf.WriteString("\n")
		if err := build.BundleScripts(s.opts.StaticURL, frontEndPath).Render(ctx, &buf); err != nil {
			return err
		}
		c.Type("html")
		return c.Send(buf.Bytes())
	}

	return c.JSON(bundles{
		Page:    frontEndPath,
		Scripts: build.ScriptPaths(s.opts.StaticURL, frontEndPath),
		Styles:  build.StylePaths(s.opts.StaticURL, frontEndPath),
	})
}

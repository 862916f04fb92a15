package main

import (
	"flag"

	"github.com/asticode/go-astilog"
	asticonfig "github.com/asticode/go-astitools/config"
	"github.com/pkg/errors"

	accessvoice "github.com/accesswork/go-accessvoice"
	"github.com/accesswork/go-accessvoice/index"
)

// Flags
var (
	addr            = flag.String("addr", "", "the index addr")
	config          = flag.String("c", "", "the config path")
	preferencesPath = flag.String("p", "", "the preferences db path")
)

func main() {
	// Parse flags
	flag.Parse()
	astilog.FlagInit()

	// Init configuration
	c := newConfiguration()

	// Create index
	i, err := index.New(c.Index)
	if err != nil {
		astilog.Fatal(errors.Wrap(err, "main: creating index failed"))
	}
	defer i.Close()

	// Handle signals
	i.HandleSignals()

	// Serve
	i.Serve()

	// Blocking pattern
	i.Wait()
}

// Configuration represents a configuration
type Configuration struct {
	Index index.Options `toml:"index"`
}

// newConfiguration creates a new configuration
func newConfiguration() *Configuration {
	// Global config
	gc := &Configuration{
		Index: index.Options{
			PreferencesPath: "preferences.db",
			Server: accessvoice.ServerOptions{
				Addr:     "127.0.0.1:4000",
				Password: "admin",
				Username: "admin",
			},
		},
	}

	// Flag config
	fc := &Configuration{
		Index: index.Options{
			PreferencesPath: *preferencesPath,
			Server: accessvoice.ServerOptions{
				Addr: *addr,
			},
		},
	}

	// Build configuration
	c, err := asticonfig.New(gc, *config, fc)
	if err != nil {
		astilog.Fatal(err)
	}
	return c.(*Configuration)
}

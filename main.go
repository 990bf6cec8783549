/*
Preloads models through the asset pipeline on a headless renderer and
reports what was loaded. Useful to check an assets folder before shipping it.

	anima-assets -config assets.toml crate sponza/sponza.gltf
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/anima-assets/engine"
	"github.com/spaghettifunk/anima-assets/engine/config"
	"github.com/spaghettifunk/anima-assets/engine/core"
	"github.com/spaghettifunk/anima-assets/engine/renderer/metadata"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML configuration file")
	root := flag.String("root", "", "assets root, overrides the configuration")
	autoPBR := flag.Bool("auto-pbr", false, "bind <model>_<role> textures found next to each model")
	verbose := flag.Bool("v", false, "log every load state")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: anima-assets [flags] model...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg := config.Default()
	if *configPath != "" {
		c, err := config.Load(*configPath)
		if err != nil {
			os.Exit(1)
		}
		cfg = c
	}
	if *root != "" {
		cfg.Assets.Root = *root
	}
	if *autoPBR {
		cfg.Assets.AutoPBR = true
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	// nothing outlives the process, there is nothing to invalidate
	cfg.Assets.Watch = false

	e, err := engine.New(cfg, nil)
	if err != nil {
		os.Exit(1)
	}
	if err := e.Initialize(); err != nil {
		e.Shutdown()
		os.Exit(1)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	go func() {
		<-sigCh
		core.LogWarn("interrupted, shutting down")
		_ = e.Shutdown()
		os.Exit(130)
	}()

	results := e.Preload(flag.Args(), func(p metadata.LoadProgress) {
		core.LogDebug("%s [%s] %s decoded %d/%d uploaded %d/%d",
			p.Path, p.LoadID, p.State, p.ImagesDecoded, p.TotalImages, p.TexturesUploaded, p.TotalImages)
	})

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Printf("FAIL  %s: %s\n", r.Name, r.Err)
			continue
		}
		m := r.Handle.Get()
		vertices := 0
		for _, mesh := range m.Meshes {
			vertices += mesh.VertexCount()
		}
		fmt.Printf("OK    %s: %d meshes, %d vertices, %d materials, textures %d/%d (%d failed)\n",
			m.Path, len(m.Meshes), vertices, len(m.Materials), m.Stats.Loaded, m.Stats.Requested, m.Stats.Failed)
	}
	for _, r := range results {
		if r.Handle != nil {
			r.Handle.Release()
		}
	}

	stats := e.Assets().Stats()
	fmt.Printf("cache: %d loads, %d hits, %d failed\n", stats.Loads, stats.Hits, stats.Failed)

	if err := e.Shutdown(); err != nil {
		os.Exit(1)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

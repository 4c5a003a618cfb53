// SPDX-License-Identifier: MIT
// Copyright (c) 2020 Brian Starkey <stark3y@gmail.com>
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cheggaaa/pb/v3"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"github.com/usedbytes/log"
	"github.com/usedbytes/rpgm-tools/lib/asset"
	"github.com/usedbytes/rpgm-tools/lib/config"
	"github.com/usedbytes/rpgm-tools/lib/rpgm"
)

func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg := config.Default()

	if ctx.IsSet("config") {
		var err error
		cfg, err = config.LoadConfig(ctx.String("config"))
		if err != nil {
			return nil, err
		}
		log.Verboseln(cfg)
	}

	// Flags override the config file
	if ctx.IsSet("key") {
		cfg.Key = ctx.String("key")
	}
	if ctx.IsSet("out") {
		cfg.OutputDir = ctx.String("out")
	}
	if ctx.IsSet("restore") {
		cfg.RestoreHeader = ctx.Bool("restore")
	}
	if ctx.IsSet("strict") {
		cfg.Strict = ctx.Bool("strict")
	}
	if ctx.IsSet("engine") {
		err := cfg.Engine.UnmarshalText([]byte(ctx.String("engine")))
		if err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func newDecrypter(cfg *config.Config, paths []string) (*rpgm.Decrypter, error) {
	g, err := cfg.ResolveGeometry()
	if err != nil {
		return nil, err
	}

	key := cfg.Key
	if len(key) == 0 {
		// Try any game directories we were given before falling back to
		// discovery from the images themselves.
		for _, p := range paths {
			fi, err := os.Stat(p)
			if err != nil || !fi.IsDir() {
				continue
			}

			k, src, err := asset.FindProjectKey(p)
			if err == nil {
				log.Printf("Using key from %s\n", src)
				key = k
				break
			}
		}
	}

	d, err := rpgm.NewDecrypter(key)
	if err != nil {
		return nil, err
	}
	d.Geometry = g
	d.Strict = cfg.Strict

	return d, nil
}

// batchAction runs the operation named by the command
func batchAction(ctx *cli.Context) error {
	op, err := rpgm.ParseOperation(ctx.Command.Name)
	if err != nil {
		return err
	}

	if ctx.Args().Len() == 0 {
		return fmt.Errorf("PATH is required")
	}
	paths := ctx.Args().Slice()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	d, err := newDecrypter(cfg, paths)
	if err != nil {
		return err
	}

	files, err := asset.CollectFiles(paths, op)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		log.Println("No files to", op)
		return nil
	}

	b := &asset.Batch{
		Decrypter:     d,
		Operation:     op,
		Engine:        cfg.Engine,
		RestoreImages: cfg.RestoreHeader,
		OutputDir:     cfg.OutputDir,
	}

	manifest := ctx.String("manifest")
	if len(manifest) != 0 {
		b.Manifest = &config.Manifest{}
		b.ManifestDir = filepath.Dir(manifest)
	}

	log.Printf(">>> %s %d files...\n", op, len(files))
	if !ctx.Bool("verbose") {
		bar := pb.StartNew(len(files))
		b.Progress = func(f asset.File) {
			bar.Increment()
		}
		defer bar.Finish()
	}

	err = b.Run(files)
	if err != nil {
		return err
	}

	if key, ok := d.Key(); ok {
		log.Verbosef("Key: %s\n", key)
	}

	if b.Manifest != nil {
		err = b.Manifest.WriteTOML(manifest)
		if err != nil {
			return errors.Wrap(err, "writing manifest")
		}
		log.Verbosef("Wrote manifest %s\n", manifest)
	}

	return nil
}

func keyAction(ctx *cli.Context) error {
	if ctx.Args().Len() != 1 {
		return fmt.Errorf("PATH is required")
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	g, err := cfg.ResolveGeometry()
	if err != nil {
		return err
	}

	key, src, err := asset.DiscoverKey(ctx.Args().First(), g)
	if err != nil {
		return err
	}

	log.Verbosef("Found in %s\n", src)
	log.Println(key)

	save := ctx.String("save")
	if len(save) != 0 {
		cfg.Key = key
		err = cfg.WriteTOML(save)
		if err != nil {
			return errors.Wrap(err, "saving config")
		}
		log.Printf("Saved key to %s\n", save)
	}

	return nil
}

func verifyAction(ctx *cli.Context) error {
	if ctx.Args().Len() != 1 {
		return fmt.Errorf("MANIFEST is required")
	}
	fname := ctx.Args().First()

	m, err := config.LoadManifest(fname)
	if err != nil {
		return err
	}

	bad, err := m.Verify(filepath.Dir(fname))
	if err != nil {
		return err
	}

	for _, e := range bad {
		log.Println("FAILED:", e)
	}

	if len(bad) != 0 {
		return cli.Exit(fmt.Sprintf("%d of %d files failed verification", len(bad), len(m.Entries)), 2)
	}

	log.Printf("%d files OK\n", len(m.Entries))
	return nil
}

func main() {
	keyFlag := &cli.StringFlag{
		Name:    "key",
		Aliases: []string{"k"},
		Usage:   "Encryption key (System.json's encryptionKey). Discovered if not given",
	}
	outFlag := &cli.StringFlag{
		Name:    "out",
		Aliases: []string{"o"},
		Usage:   "Output directory. Defaults to writing next to the input files",
	}
	manifestFlag := &cli.StringFlag{
		Name:    "manifest",
		Aliases: []string{"m"},
		Usage:   "Write a manifest of the output files, for use with 'verify'",
	}

	app := &cli.App{
		Name:  "rpgm",
		Usage: "A tool for decrypting and encrypting RPG Maker MV/MZ assets",
		// Just ignore errors - we'll handle them ourselves in main()
		ExitErrHandler: func(c *cli.Context, e error) {},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:     "verbose",
				Aliases:  []string{"v"},
				Usage:    "Enable more output",
				Required: false,
				Value:    false,
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "TOML config file",
			},
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:      "decrypt",
			Usage:     "Decrypt .rpgmvp/.rpgmvo/.rpgmvm/.png_/.ogg_/.m4a_ files",
			ArgsUsage: "PATH...",
			Action:    batchAction,
			Flags: []cli.Flag{
				keyFlag,
				outFlag,
				manifestFlag,
				&cli.BoolFlag{
					Name:  "restore",
					Usage: "Restore image headers instead of decrypting them",
				},
				&cli.BoolFlag{
					Name:  "strict",
					Usage: "Refuse files without the expected header",
				},
			},
		},
		{
			Name:      "encrypt",
			Usage:     "Encrypt .png/.ogg/.m4a files",
			ArgsUsage: "PATH...",
			Action:    batchAction,
			Flags: []cli.Flag{
				keyFlag,
				outFlag,
				manifestFlag,
				&cli.StringFlag{
					Name:    "engine",
					Aliases: []string{"e"},
					Usage:   "Output file naming, 'mv' or 'mz'",
					Value:   "mv",
				},
			},
		},
		{
			Name:      "restore",
			Usage:     "Restore encrypted images to PNG without using the key",
			ArgsUsage: "PATH...",
			Action:    batchAction,
			Flags: []cli.Flag{
				outFlag,
				manifestFlag,
			},
		},
		{
			Name:      "key",
			Usage:     "Find the encryption key for a game directory or file",
			ArgsUsage: "PATH",
			Action:    keyAction,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "save",
					Aliases: []string{"s"},
					Usage:   "Write a config file containing the key",
				},
			},
		},
		{
			Name:      "verify",
			Usage:     "Check the files listed in a manifest",
			ArgsUsage: "MANIFEST",
			Action:    verifyAction,
		},
	}

	app.Before = func(ctx *cli.Context) error {
		log.SetUseLog(false)

		log.SetVerbose(ctx.Bool("verbose"))
		log.Verboseln("Extra output enabled.")
		return nil
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Println("ERROR:", err)
		if v, ok := err.(cli.ExitCoder); ok {
			os.Exit(v.ExitCode())
		} else {
			os.Exit(1)
		}
	}
}

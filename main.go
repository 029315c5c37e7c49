//go:build !(js && wasm)

package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/voxelsplace/mole/internal/config"
	"github.com/voxelsplace/mole/internal/logger"
	"github.com/voxelsplace/mole/utils"
)

func usage() {
	fmt.Println("Usage: moletool [-config path] [-debug] <command> [args]")
	fmt.Println("Commands:")
	fmt.Println("  glb2mole input.glb output.mole              (import a glTF binary into a .mole container)")
	fmt.Println("  mole2glb input.mole output.glb              (export a .mole container as glTF binary)")
	fmt.Println("  img2mole output.mole img1 [img2 ...]        (pack png/jpeg/bmp/webp/tga images into a .mole)")
	fmt.Println("  info input.mole                             (print counts, images and validation issues)")
	fmt.Println("  sample output.mole [seed] [texSize]         (write a textured cube)")
}

func fail(err error) {
	fmt.Println("Error:", err)
	logger.Error("command failed", zap.Error(err))
	logger.Sync()
	os.Exit(1)
}

func main() {
	fs := flag.NewFlagSet("moletool", flag.ExitOnError)
	fs.Usage = usage
	cfgPath := fs.String("config", "", "path to moletool.yaml")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[1:])
	args := fs.Args()

	if len(args) < 1 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fail(err)
	}
	level := cfg.Logging.Level
	if *debug {
		level = "debug"
	}
	if err := logger.Init(level, cfg.Logging.LogFile); err != nil {
		fail(err)
	}
	defer logger.Sync()

	opt, err := utils.OptionsFromConfig(cfg)
	if err != nil {
		fail(err)
	}

	switch args[0] {
	case "glb2mole":
		if len(args) != 3 {
			usage()
			os.Exit(1)
		}
		if err := utils.RunGLB2Mole(opt, args[1], args[2]); err != nil {
			fail(err)
		}
	case "mole2glb":
		if len(args) != 3 {
			usage()
			os.Exit(1)
		}
		if err := utils.RunMole2GLB(opt, args[1], args[2]); err != nil {
			fail(err)
		}
	case "img2mole":
		if len(args) < 3 {
			usage()
			os.Exit(1)
		}
		if err := utils.RunImages2Mole(opt, args[2:], args[1]); err != nil {
			fail(err)
		}
	case "info":
		if len(args) != 2 {
			usage()
			os.Exit(1)
		}
		if err := utils.RunInfo(opt, args[1], os.Stdout); err != nil {
			fail(err)
		}
		return
	case "sample":
		if len(args) < 2 || len(args) > 4 {
			usage()
			os.Exit(1)
		}
		var seed int64
		texSize := 16
		if len(args) >= 3 {
			if seed, err = strconv.ParseInt(args[2], 10, 64); err != nil {
				fail(err)
			}
		}
		if len(args) == 4 {
			if texSize, err = strconv.Atoi(args[3]); err != nil {
				fail(err)
			}
		}
		if err := utils.RunSample(opt, args[1], seed, texSize); err != nil {
			fail(err)
		}
	default:
		usage()
		os.Exit(1)
	}

	fmt.Println("Operation completed!")
}

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/gofrs/flock"
	"github.com/jessevdk/go-flags"

	"github.com/jhnikula/mce/iomon"
	"github.com/jhnikula/mce/logger"
	"github.com/jhnikula/mce/mainloop"
	"github.com/jhnikula/mce/state"
	"github.com/jhnikula/mce/switches"
)

var lg = logger.Slog

const version = "1.12.0"

type options struct {
	Config   string `short:"c" long:"config" env:"MCE_CONFIG" default:"/etc/mce/mce.ini" description:"configuration file to use"`
	LockFile string `short:"l" long:"lockfile" description:"single instance lock file, overrides the configured one"`
	Debug    bool   `short:"d" long:"debug" description:"log at debug level"`
	Version  bool   `short:"v" long:"version" description:"print version and exit"`
}

func parseOptions() *options {
	opts := &options{}
	parser := flags.NewParser(opts, flags.Default)
	parser.Name = "mce"
	parser.Usage = "[OPTIONS]"
	if _, err := parser.Parse(); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		os.Exit(1)
	}
	return opts
}

func main() {
	opts := parseOptions()
	if opts.Version {
		fmt.Println("mce " + version)
		return
	}

	config := initConfig(opts.Config)
	if opts.Debug {
		config.LogLevel = "debug"
	}
	if opts.LockFile != "" {
		config.LockFile = opts.LockFile
	}
	logger.SetLogLevel(config.LogLevel)

	locker := flock.New(config.LockFile)
	locked, err := locker.TryLock()
	if err != nil {
		lg.Error("could not acquire instance lock", "path", config.LockFile, "error", err)
		os.Exit(1)
	}
	if !locked {
		lg.Error("another instance is already running", "path", config.LockFile)
		os.Exit(1)
	}
	defer locker.Unlock()

	loop := mainloop.New()
	pipes := state.NewPipes()

	registry, err := iomon.NewRegistry(loop)
	if err != nil {
		lg.Error("could not create the file monitor registry", "error", err)
		os.Exit(1)
	}

	mod := switches.New(switches.Config{Pipes: pipes, Monitors: registry})
	mod.Start()

	var mceBus *mceDbus
	if config.UseDBus {
		mceBus, err = setupDbus(config, loop, pipes, mod)
		if err != nil {
			lg.Error("could not set up D-Bus", "error", err)
			os.Exit(1)
		}
	}

	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-signalChannel
		lg.Info("got shutdown signal", "signal", sig.String())
		daemon.SdNotify(false, daemon.SdNotifyStopping)
		if mceBus != nil {
			mceBus.Close()
		}
		loop.Stop()
	}()

	daemon.SdNotify(false, daemon.SdNotifyReady)
	lg.Info("mce started", "version", version)
	loop.Run()

	mod.Stop()
	registry.Close()
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"

	"github.com/l2hyunwoo/craby/cmd/craby/internal/codegen"
	"github.com/l2hyunwoo/craby/cmd/craby/internal/doctor"
	"github.com/l2hyunwoo/craby/cmd/craby/internal/show"
	"github.com/l2hyunwoo/craby/internal/logger"
)

type CLI struct {
	Verbose int  `help:"Increase log verbosity (-v info, -vv debug)." short:"v" type:"counter"`
	LogJSON bool `help:"Log as JSON." name:"log-json"`

	Codegen codegen.Cmd `cmd:"" help:"Generate Rust declarations and the C++ bridge from module specs."`
	Show    show.Cmd    `cmd:"" help:"Print the modules found in the project."`
	Doctor  doctor.Cmd  `cmd:"" help:"Check the project configuration and layout."`
	Version VersionCmd  `cmd:"" help:"Print version information."`
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(Version())
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cli := &CLI{}
	kctx := kong.Parse(cli,
		kong.Name("craby"),
		kong.Description("Type-safe Rust for React Native modules."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	if err := logger.Initialize(cli.Verbose, cli.LogJSON); err != nil {
		kctx.FatalIfErrorf(err)
	}
	err := kctx.Run()
	logger.Sync()
	kctx.FatalIfErrorf(err)
}

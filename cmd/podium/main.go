package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/m4xw311/podium/config"
	"github.com/m4xw311/podium/console"
	"github.com/m4xw311/podium/debate"
	"github.com/m4xw311/podium/errors"
	"github.com/m4xw311/podium/llm"
	"github.com/m4xw311/podium/tools"
	"github.com/m4xw311/podium/tools/mcp"
	"github.com/m4xw311/podium/transcript"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configFlag := flag.String("config", "", "Path to a YAML configuration file")
	topicFlag := flag.String("topic", "", "Debate topic")
	roundsFlag := flag.Int("rounds", 0, "Number of debate rounds")
	logDirFlag := flag.String("log-dir", "", "Directory for transcript files")
	maxToolRoundsFlag := flag.Int("max-tool-rounds", 0, "Maximum tool call rounds per turn")
	commonPersonaFlag := flag.String("common-persona", "", "Persona instructions applied to both debaters")
	toolVerbosityFlag := flag.String("tool-verbosity", "none", "Tool verbosity level: 'none', 'info', or 'all'")

	var flagsA, flagsB config.Debater
	registerDebaterFlags("debater1", &flagsA)
	registerDebaterFlags("debater2", &flagsB)
	flag.Parse()

	var fileCfg *config.Config
	if *configFlag != "" {
		var err error
		fileCfg, err = config.Load(*configFlag)
		if err != nil {
			return err
		}
	}

	cfg, err := config.Resolve(config.Defaults(), config.Environ(os.Environ()), fileCfg, config.Overrides{
		Topic:         *topicFlag,
		Rounds:        *roundsFlag,
		CommonPersona: *commonPersonaFlag,
		LogDir:        *logDirFlag,
		MaxToolRounds: *maxToolRoundsFlag,
		DebaterA:      flagsA,
		DebaterB:      flagsB,
	})
	if err != nil {
		return err
	}

	var verbosity console.ToolVerbosity
	switch *toolVerbosityFlag {
	case "none":
		verbosity = console.ToolVerbosityNone
	case "info":
		verbosity = console.ToolVerbosityInfo
	case "all":
		verbosity = console.ToolVerbosityAll
	default:
		return errors.New("invalid tool verbosity '%s'. Must be 'none', 'info', or 'all'", *toolVerbosityFlag)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	recorder, err := transcript.New(cfg.LogDir, cfg.Topic, cfg.Rounds)
	if err != nil {
		return err
	}
	defer func() {
		recorder.Close()
		fmt.Printf("Transcript saved to: %s\n", recorder.DebatePath)
		fmt.Printf("Tool call log saved to: %s\n", recorder.ToolPath)
	}()

	gateway := tools.NewGateway(console.New(os.Stderr, verbosity))
	defer gateway.Close()

	if len(cfg.BuiltinTools) > 0 {
		builtin, err := tools.NewBuiltin(&cfg, cfg.BuiltinTools)
		if err != nil {
			return err
		}
		if err := gateway.Register(builtin); err != nil {
			return err
		}
	}
	if len(cfg.MCPServers) > 0 {
		connected, attempted := gateway.Connect(ctx, cfg.MCPServers, mcp.Dial)
		fmt.Printf("Connected to %d/%d MCP server(s), %d tool(s) available.\n",
			connected, attempted, len(gateway.Available()))
	}

	debaterA, err := buildDebater(ctx, &cfg, cfg.DebaterA, gateway, recorder, console.New(os.Stdout, verbosity))
	if err != nil {
		return err
	}
	debaterB, err := buildDebater(ctx, &cfg, cfg.DebaterB, gateway, recorder, console.New(os.Stdout, verbosity))
	if err != nil {
		return err
	}
	fmt.Printf("%s initialized: %s/%s\n", cfg.DebaterA.Name, cfg.DebaterA.Provider, cfg.DebaterA.Model)
	fmt.Printf("%s initialized: %s/%s\n", cfg.DebaterB.Name, cfg.DebaterB.Provider, cfg.DebaterB.Model)

	session := debate.New(cfg.Topic, cfg.Rounds, debaterA, debaterB,
		recorder, console.New(os.Stdout, verbosity))
	return session.Run(ctx)
}

func registerDebaterFlags(prefix string, d *config.Debater) {
	flag.StringVar(&d.Name, prefix+"-name", "", "Display name for "+prefix)
	flag.StringVar(&d.Provider, prefix+"-provider", "", "API provider for "+prefix)
	flag.StringVar(&d.Model, prefix+"-model", "", "Model name for "+prefix)
	flag.StringVar(&d.BaseURL, prefix+"-base-url", "", "Custom base URL for "+prefix)
	flag.StringVar(&d.Persona, prefix+"-persona", "", "System prompt/persona for "+prefix)
	flag.StringVar(&d.Opening, prefix+"-opening", "", "Opening statement for "+prefix)
	flag.Float64Var(&d.Temperature, prefix+"-temperature", 0, "Sampling temperature for "+prefix)
	flag.IntVar(&d.MaxTokens, prefix+"-max-tokens", 0, "Max response tokens for "+prefix)
}

func buildDebater(ctx context.Context, cfg *config.Config, dc config.Debater, gateway *tools.Gateway, recorder *transcript.Recorder, sink console.Sink) (*debate.Debater, error) {
	client, err := llm.New(ctx, dc.Provider, dc.Model, llm.Options{
		Temperature: dc.Temperature,
		MaxTokens:   dc.MaxTokens,
		BaseURL:     dc.BaseURL,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "could not initialize %s", dc.Name)
	}

	persona := dc.Persona
	if cfg.CommonPersona != "" {
		persona = cfg.CommonPersona + "\n\n" + persona
	}
	return debate.NewDebater(dc.Name, persona, dc.Opening, client, gateway, recorder, sink, cfg.MaxToolRounds), nil
}

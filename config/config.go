package config

import (
	"os"
	"strconv"

	"github.com/m4xw311/podium/errors"
	"gopkg.in/yaml.v3"
)

// Provider names accepted in debater configuration.
const (
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderAnthropic  = "anthropic"
	ProviderGemini     = "gemini"
	ProviderBedrock    = "bedrock"
	ProviderMock       = "mock"
)

// Built-in defaults, applied before any other configuration layer.
const (
	DefaultTopic       = "capitalism"
	DefaultRounds      = 5
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 500
	DefaultLogDir      = "logs"

	// DefaultMaxToolRounds bounds the per-turn tool sub-loop. A model that
	// keeps requesting tools past this bound fails the turn instead of
	// burning tokens forever.
	DefaultMaxToolRounds = 5
)

const defaultCommonPersona = "You are participating in a formal debate. " +
	"Present well-reasoned arguments, respond to your opponent's points, " +
	"and maintain a respectful yet assertive tone. " +
	"Focus on logic, evidence, and persuasion. " +
	"Present evidence-based arguments and respond directly to criticisms. " +
	"You will use the available tools to find information to support your arguments whenever possible, " +
	"and list relevant sources in your response. " +
	"Do not refer to or list any sources unless you have used a tool to find the information."

const defaultDebater1Persona = "You are a fiercely argumentative and critical debater who opposes capitalism. " +
	"You believe capitalism is inherently exploitative, unsustainable, and the root of growing inequality. " +
	"You challenge your opponent at every turn, dismantle pro-capitalist arguments with sharp logic, " +
	"and never back down in a debate. Make sure your response is succinct and to the point."

const defaultDebater2Persona = "You are a confident and assertive defender of capitalism. " +
	"You believe capitalism is the most successful system in history, and you vigorously defend it. " +
	"You counter every anti-capitalist point with strong arguments, facts, and dismiss emotional rhetoric. " +
	"You debate with clarity, aggression, and conviction. Make sure your response is succinct and to the point."

const defaultDebater1Opening = "Capitalism is a parasitic system that enriches a tiny elite while leaving billions in poverty. " +
	"It's collapsing under its own greed, and history will remember it as a failure."

const defaultDebater2Opening = "That's a tired cliche. Capitalism is why you're even able to type that message. " +
	"It's the only system that scales innovation, rewards merit, and evolves to meet society's needs."

// Debater configures one participant.
type Debater struct {
	Name        string  `yaml:"name"`
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	Persona     string  `yaml:"persona"`
	Opening     string  `yaml:"opening"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// MCPServer describes one external tool server to launch and connect to.
type MCPServer struct {
	Name    string            `yaml:"name"`
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args"`
	Env     map[string]string `yaml:"env"`
}

// FilesystemAccess restricts what the built-in file tools may touch.
// Patterns are doublestar globs.
type FilesystemAccess struct {
	Hidden   []string `yaml:"hidden"`
	ReadOnly []string `yaml:"read_only"`
}

// Config is the fully resolved configuration consumed by the rest of the
// program. After Resolve it is never mutated.
type Config struct {
	Topic         string  `yaml:"topic"`
	Rounds        int     `yaml:"rounds"`
	CommonPersona string  `yaml:"common_persona"`
	DebaterA      Debater `yaml:"debater1"`
	DebaterB      Debater `yaml:"debater2"`

	LogDir        string `yaml:"log_dir"`
	MaxToolRounds int    `yaml:"max_tool_rounds"`

	MCPServers       []MCPServer      `yaml:"mcp_servers"`
	BuiltinTools     []string         `yaml:"builtin_tools"`
	AllowedCommands  []string         `yaml:"allowed_commands"`
	FilesystemAccess FilesystemAccess `yaml:"filesystem_access"`
}

// Overrides carries the command-line flag values. Zero values mean "not set".
type Overrides struct {
	Topic         string
	Rounds        int
	CommonPersona string
	LogDir        string
	MaxToolRounds int
	DebaterA      Debater
	DebaterB      Debater
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Topic:         DefaultTopic,
		Rounds:        DefaultRounds,
		CommonPersona: defaultCommonPersona,
		LogDir:        DefaultLogDir,
		MaxToolRounds: DefaultMaxToolRounds,
		DebaterA: Debater{
			Name:        "Debater 1",
			Provider:    ProviderOpenAI,
			Model:       "gpt-4o-mini",
			Persona:     defaultDebater1Persona,
			Opening:     defaultDebater1Opening,
			Temperature: DefaultTemperature,
			MaxTokens:   DefaultMaxTokens,
		},
		DebaterB: Debater{
			Name:        "Debater 2",
			Provider:    ProviderOpenAI,
			Model:       "gpt-4o-mini",
			Persona:     defaultDebater2Persona,
			Opening:     defaultDebater2Opening,
			Temperature: DefaultTemperature,
			MaxTokens:   DefaultMaxTokens,
		},
	}
}

// Load reads a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read config file %s", path)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "could not parse config file %s", path)
	}
	return &cfg, nil
}

// Resolve merges the configuration layers, lowest to highest precedence:
// defaults, environment, config file, command-line flags. It is a pure
// function; the environment is passed in rather than read here. The result
// is validated before being returned.
func Resolve(defaults Config, env map[string]string, file *Config, flags Overrides) (Config, error) {
	cfg := defaults

	applyEnv(&cfg, env)
	if file != nil {
		applyFile(&cfg, file)
	}
	applyFlags(&cfg, flags)

	if err := validate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Environ converts os.Environ-style "key=value" pairs into the map Resolve
// expects.
func Environ(pairs []string) map[string]string {
	env := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				env[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	return env
}

func applyEnv(cfg *Config, env map[string]string) {
	if v, ok := env["PODIUM_TOPIC"]; ok && v != "" {
		cfg.Topic = v
	}
	if v, ok := env["PODIUM_ROUNDS"]; ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Rounds = n
		}
	}
	if v, ok := env["PODIUM_LOG_DIR"]; ok && v != "" {
		cfg.LogDir = v
	}
	applyDebaterEnv(&cfg.DebaterA, "DEBATER1", env)
	applyDebaterEnv(&cfg.DebaterB, "DEBATER2", env)
}

func applyDebaterEnv(d *Debater, prefix string, env map[string]string) {
	if v, ok := env[prefix+"_PROVIDER"]; ok && v != "" {
		d.Provider = v
	}
	if v, ok := env[prefix+"_MODEL"]; ok && v != "" {
		d.Model = v
	}
	if v, ok := env[prefix+"_BASE_URL"]; ok && v != "" {
		d.BaseURL = v
	}
}

func applyFile(cfg *Config, file *Config) {
	if file.Topic != "" {
		cfg.Topic = file.Topic
	}
	if file.Rounds != 0 {
		cfg.Rounds = file.Rounds
	}
	if file.CommonPersona != "" {
		cfg.CommonPersona = file.CommonPersona
	}
	if file.LogDir != "" {
		cfg.LogDir = file.LogDir
	}
	if file.MaxToolRounds != 0 {
		cfg.MaxToolRounds = file.MaxToolRounds
	}
	if len(file.MCPServers) > 0 {
		cfg.MCPServers = file.MCPServers
	}
	if len(file.BuiltinTools) > 0 {
		cfg.BuiltinTools = file.BuiltinTools
	}
	if len(file.AllowedCommands) > 0 {
		cfg.AllowedCommands = file.AllowedCommands
	}
	if len(file.FilesystemAccess.Hidden) > 0 {
		cfg.FilesystemAccess.Hidden = file.FilesystemAccess.Hidden
	}
	if len(file.FilesystemAccess.ReadOnly) > 0 {
		cfg.FilesystemAccess.ReadOnly = file.FilesystemAccess.ReadOnly
	}
	applyDebater(&cfg.DebaterA, &file.DebaterA)
	applyDebater(&cfg.DebaterB, &file.DebaterB)
}

func applyDebater(d *Debater, o *Debater) {
	if o.Name != "" {
		d.Name = o.Name
	}
	if o.Provider != "" {
		d.Provider = o.Provider
	}
	if o.Model != "" {
		d.Model = o.Model
	}
	if o.BaseURL != "" {
		d.BaseURL = o.BaseURL
	}
	if o.Persona != "" {
		d.Persona = o.Persona
	}
	if o.Opening != "" {
		d.Opening = o.Opening
	}
	if o.Temperature != 0 {
		d.Temperature = o.Temperature
	}
	if o.MaxTokens != 0 {
		d.MaxTokens = o.MaxTokens
	}
}

func applyFlags(cfg *Config, flags Overrides) {
	if flags.Topic != "" {
		cfg.Topic = flags.Topic
	}
	if flags.Rounds != 0 {
		cfg.Rounds = flags.Rounds
	}
	if flags.CommonPersona != "" {
		cfg.CommonPersona = flags.CommonPersona
	}
	if flags.LogDir != "" {
		cfg.LogDir = flags.LogDir
	}
	if flags.MaxToolRounds != 0 {
		cfg.MaxToolRounds = flags.MaxToolRounds
	}
	applyDebater(&cfg.DebaterA, &flags.DebaterA)
	applyDebater(&cfg.DebaterB, &flags.DebaterB)
}

func validate(cfg *Config) error {
	if cfg.Topic == "" {
		return errors.New("debate topic must not be empty")
	}
	if cfg.Rounds < 1 {
		return errors.New("rounds must be at least 1, got %d", cfg.Rounds)
	}
	if cfg.MaxToolRounds < 1 {
		return errors.New("max_tool_rounds must be at least 1, got %d", cfg.MaxToolRounds)
	}
	for _, d := range []*Debater{&cfg.DebaterA, &cfg.DebaterB} {
		if err := validateDebater(d); err != nil {
			return err
		}
	}
	for _, s := range cfg.MCPServers {
		if s.Name == "" || s.Command == "" {
			return errors.New("mcp server entries require both name and command")
		}
	}
	return nil
}

func validateDebater(d *Debater) error {
	switch d.Provider {
	case ProviderOpenAI, ProviderOpenRouter, ProviderAnthropic, ProviderGemini, ProviderBedrock, ProviderMock:
	default:
		return errors.New("unknown provider '%s' for %s", d.Provider, d.Name)
	}
	if d.Model == "" && d.Provider != ProviderMock {
		return errors.New("model must be set for %s", d.Name)
	}
	if d.Temperature < 0.0 || d.Temperature > 2.0 {
		return errors.New("temperature for %s must be between 0.0 and 2.0, got %v", d.Name, d.Temperature)
	}
	if d.MaxTokens < 1 {
		return errors.New("max_tokens for %s must be positive, got %d", d.Name, d.MaxTokens)
	}
	return nil
}

package config

import (
	"bytes"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"strings"
)

const (
	EnvPrefix = "CLOCKYSAP"

	KeyClockifyURL               = "clockify.url"
	KeyClockifyAPIKey            = "clockify.api_key"
	KeyClockifyWorkspaceID       = "clockify.workspace_id"
	KeyClockifyUserID            = "clockify.user_id"
	KeyClockifyPageSize          = "clockify.page_size"
	KeyClockifyRequestsPerSecond = "clockify.requests_per_second"
	KeySFURL                     = "successfactors.url"
	KeySFEntitySet               = "successfactors.entity_set"
	KeySFCompanyID               = "successfactors.company_id"
	KeySFAuth                    = "successfactors.auth"
	KeySFUsername                = "successfactors.username"
	KeySFPassword                = "successfactors.password"
	KeySFTokenURL                = "successfactors.token_url"
	KeySFClientID                = "successfactors.client_id"
	KeySFClientSecret            = "successfactors.client_secret"
	KeyMappingEmployeeID         = "mapping.employee_id"
	KeyMappingDefaultTimeType    = "mapping.default_time_type"
	KeyMappingDefaultCostCenter  = "mapping.default_cost_center"
	KeyMappingRoundingMinutes    = "mapping.rounding_minutes"
	KeySyncAggregate             = "sync.aggregate"
	KeySyncDBPath                = "sync.db"
	KeyRules                     = "rules"

	AuthBasic  = "basic"
	AuthOAuth2 = "oauth2"
)

type Config struct {
	Clockify       ClockifyConfig       `mapstructure:"clockify" validate:"required"`
	SuccessFactors SuccessFactorsConfig `mapstructure:"successfactors" validate:"required"`
	Mapping        MappingConfig        `mapstructure:"mapping" validate:"required"`
	Sync           SyncConfig           `mapstructure:"sync"`
	Rules          []Rule               `mapstructure:"rules"`
}

type ClockifyConfig struct {
	URL               string  `mapstructure:"url" validate:"required,url"`
	APIKey            string  `mapstructure:"api_key"`
	WorkspaceID       string  `mapstructure:"workspace_id"`
	UserID            string  `mapstructure:"user_id"`
	PageSize          int     `mapstructure:"page_size" validate:"gte=1,lte=5000"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gt=0"`
}

type SuccessFactorsConfig struct {
	URL          string `mapstructure:"url" validate:"required,url"`
	EntitySet    string `mapstructure:"entity_set" validate:"required"`
	CompanyID    string `mapstructure:"company_id"`
	Auth         string `mapstructure:"auth" validate:"oneof=basic oauth2"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	TokenURL     string `mapstructure:"token_url" validate:"omitempty,url"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

type MappingConfig struct {
	EmployeeID        string `mapstructure:"employee_id" validate:"required"`
	DefaultTimeType   string `mapstructure:"default_time_type" validate:"required"`
	DefaultCostCenter string `mapstructure:"default_cost_center"`
	RoundingMinutes   int    `mapstructure:"rounding_minutes" validate:"gte=0,lte=60"`
}

type SyncConfig struct {
	Aggregate bool   `mapstructure:"aggregate"`
	DBPath    string `mapstructure:"db"`
}

// Rule maps a Clockify project (and optionally one of its tasks) to a
// SuccessFactors cost center. Task empty matches every task of the project.
type Rule struct {
	Name       string `mapstructure:"name"`
	Project    string `mapstructure:"project"`
	Task       string `mapstructure:"task"`
	CostCenter string `mapstructure:"cost_center"`
	TimeType   string `mapstructure:"time_type"`
}

// SetDefaults sets default values if not provided
func SetDefaults() {
	setDefaults(viper.GetViper())
}

// LoadAndValidate loads config from Viper and validates it
func LoadAndValidate() (*Config, error) {
	return loadAndValidateFromViper(viper.GetViper())
}

// ValidateYAMLContent validates configuration from raw YAML content.
func ValidateYAMLContent(content []byte) (*Config, error) {
	local := viper.New()
	setDefaults(local)
	local.SetConfigType("yaml")
	if err := local.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("read config content: %w", err)
	}
	return loadAndValidateFromViper(local)
}

// BindEnv makes every known key overridable via CLOCKYSAP_<SECTION>_<KEY>.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// TemplateValues prefill a generated configuration file.
type TemplateValues struct {
	EmployeeID        string
	CompanyID         string
	Auth              string
	DefaultCostCenter string
}

// ExampleYAML returns the default configuration template.
func ExampleYAML() string {
	return RenderTemplate(TemplateValues{})
}

// RenderTemplate returns the configuration template with values filled in.
// Only the credentials of the selected auth mode are listed.
func RenderTemplate(values TemplateValues) string {
	auth := strings.ToLower(strings.TrimSpace(values.Auth))
	if auth == "" {
		auth = AuthBasic
	}

	credentials := `  username: ""
  password: ""       # or CLOCKYSAP_SUCCESSFACTORS_PASSWORD
`
	if auth == AuthOAuth2 {
		credentials = `  token_url: ""
  client_id: ""
  client_secret: ""  # or CLOCKYSAP_SUCCESSFACTORS_CLIENT_SECRET
`
	}

	return fmt.Sprintf(`# clockysap configuration
clockify:
  url: "https://api.clockify.me/api/v1"
  api_key: ""        # or CLOCKYSAP_CLOCKIFY_API_KEY
  workspace_id: ""   # empty: default workspace of the API key owner
  user_id: ""        # empty: owner of the API key
  page_size: 200
  requests_per_second: 10

successfactors:
  url: "https://api4.successfactors.com"
  entity_set: "ExternalTimeData"
  company_id: %q
  auth: %q      # basic | oauth2
%s
mapping:
  employee_id: %q
  default_time_type: "REGULAR"
  default_cost_center: %q
  rounding_minutes: 0

sync:
  aggregate: false
  db: "./clockysap.db"

rules: []
`,
		strings.TrimSpace(values.CompanyID),
		auth,
		credentials,
		strings.TrimSpace(values.EmployeeID),
		strings.TrimSpace(values.DefaultCostCenter),
	)
}

// ParseYAMLContent reads configuration content with defaults and environment
// overrides applied, without validating it.
func ParseYAMLContent(content []byte) (*Config, error) {
	local := viper.New()
	setDefaults(local)
	BindEnv(local)
	local.SetConfigType("yaml")
	if err := local.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("read config content: %w", err)
	}
	var cfg Config
	if err := local.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// MissingSettings lists the keys a sync still needs that are empty in cfg.
// Validation accepts them empty so secrets can be supplied later.
func MissingSettings(cfg Config) []string {
	missing := make([]string, 0, 4)
	add := func(key, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}

	add(KeyMappingEmployeeID, cfg.Mapping.EmployeeID)
	add(KeyClockifyAPIKey, cfg.Clockify.APIKey)
	if strings.EqualFold(strings.TrimSpace(cfg.SuccessFactors.Auth), AuthOAuth2) {
		add(KeySFTokenURL, cfg.SuccessFactors.TokenURL)
		add(KeySFClientID, cfg.SuccessFactors.ClientID)
		add(KeySFClientSecret, cfg.SuccessFactors.ClientSecret)
	} else {
		add(KeySFUsername, cfg.SuccessFactors.Username)
		add(KeySFPassword, cfg.SuccessFactors.Password)
	}
	if len(cfg.Rules) == 0 {
		add(KeyMappingDefaultCostCenter, cfg.Mapping.DefaultCostCenter)
	}
	return missing
}

func loadAndValidateFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if err := validateAuth(cfg.SuccessFactors); err != nil {
		return nil, err
	}
	if err := validateRules(cfg.Rules); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyClockifyURL, "https://api.clockify.me/api/v1")
	v.SetDefault(KeyClockifyAPIKey, "")
	v.SetDefault(KeyClockifyWorkspaceID, "")
	v.SetDefault(KeyClockifyUserID, "")
	v.SetDefault(KeyClockifyPageSize, 200)
	v.SetDefault(KeyClockifyRequestsPerSecond, 10)
	v.SetDefault(KeySFURL, "https://api4.successfactors.com")
	v.SetDefault(KeySFEntitySet, "ExternalTimeData")
	v.SetDefault(KeySFCompanyID, "")
	v.SetDefault(KeySFAuth, AuthBasic)
	v.SetDefault(KeySFUsername, "")
	v.SetDefault(KeySFPassword, "")
	v.SetDefault(KeySFTokenURL, "")
	v.SetDefault(KeySFClientID, "")
	v.SetDefault(KeySFClientSecret, "")
	v.SetDefault(KeyMappingEmployeeID, "")
	v.SetDefault(KeyMappingDefaultTimeType, "REGULAR")
	v.SetDefault(KeyMappingDefaultCostCenter, "")
	v.SetDefault(KeyMappingRoundingMinutes, 0)
	v.SetDefault(KeySyncAggregate, false)
	v.SetDefault(KeySyncDBPath, "./clockysap.db")
	v.SetDefault(KeyRules, []map[string]any{})
}

func validateAuth(sf SuccessFactorsConfig) error {
	switch strings.ToLower(strings.TrimSpace(sf.Auth)) {
	case AuthOAuth2:
		if strings.TrimSpace(sf.TokenURL) == "" || strings.TrimSpace(sf.ClientID) == "" {
			return fmt.Errorf("validation failed: successfactors.auth=oauth2 requires token_url and client_id")
		}
	}
	return nil
}

func validateRules(rules []Rule) error {
	seen := make(map[string]struct{}, len(rules))
	for i, rule := range rules {
		project := strings.TrimSpace(rule.Project)
		if project == "" {
			return fmt.Errorf("validation failed: rules[%d].project is required", i)
		}
		if strings.TrimSpace(rule.CostCenter) == "" {
			return fmt.Errorf("validation failed: rules[%d].cost_center is required", i)
		}
		key := strings.ToLower(project) + "\x00" + strings.ToLower(strings.TrimSpace(rule.Task))
		if _, exists := seen[key]; exists {
			return fmt.Errorf("validation failed: duplicate rule for project %q task %q", project, rule.Task)
		}
		seen[key] = struct{}{}
	}
	return nil
}

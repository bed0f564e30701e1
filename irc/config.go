// Copyright (c) 2012-2014 Jeremy Latt
// Copyright (c) 2014-2015 Edmund Huber
// Copyright (c) 2016-2017 Daniel Oaks <daniel@danieloaks.net>
// Copyright (c) 2026 np1th-irc contributors
// released under the MIT license

package irc

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"gopkg.in/yaml.v2"

	"github.com/teslaNova/np1th-irc/irc/logger"
	"github.com/teslaNova/np1th-irc/irc/utils"
	"github.com/teslaNova/np1th-irc/irc/validate"
)

const envPrefix = "NP1TH__"

// ServerConfig says where and how to connect.
type ServerConfig struct {
	Host     string
	Ports    []Port
	Password string
	// applied in order to Ports
	Policies                  []PortPolicy
	ConnectTimeoutString      string        `yaml:"connect-timeout"`
	ConnectTimeout            time.Duration `yaml:"-"`
	PollIntervalString        string        `yaml:"poll-interval"`
	PollInterval              time.Duration `yaml:"-"`
	RegistrationTimeoutString string        `yaml:"registration-timeout"`
	RegistrationTimeout       time.Duration `yaml:"-"`
}

// LimitsConfig holds the validation limits, inline, and the size of the
// read buffer.
type LimitsConfig struct {
	validate.Rules `yaml:",inline"`
	// a single unterminated line longer than this closes the connection
	ReadQString string `yaml:"readq"`
	ReadQBytes  int    `yaml:"-"`
}

// Identity is who we register as. User defaults to Nick, RealName to
// DefaultRealName.
type Identity struct {
	Nick     string
	User     string
	Host     string
	RealName string `yaml:"real-name"`
}

// Origin returns the identity as a user origin.
func (id Identity) Origin() Origin {
	return NewUserOrigin(id.Nick, id.username(), id.Host)
}

func (id Identity) username() string {
	if id.User == "" {
		return id.Nick
	}
	return id.User
}

func (id Identity) realName() string {
	if id.RealName == "" {
		return DefaultRealName
	}
	return id.RealName
}

// Config describes one connection.
type Config struct {
	Server   ServerConfig
	Identity Identity
	Limits   LimitsConfig
	Logging  []logger.LoggingConfig

	Filename string `yaml:"-"`
}

type configPathError struct {
	name string
	desc string
	err  error
}

func (cpe *configPathError) Error() string {
	if cpe.err != nil {
		return fmt.Sprintf("%s: %s: %v", cpe.name, cpe.desc, cpe.err)
	}
	return fmt.Sprintf("%s: %s", cpe.name, cpe.desc)
}

func (cpe *configPathError) Unwrap() error {
	return cpe.err
}

// mungeFromEnvironment applies one NP1TH__SECTION__KEY=value override. The
// path is matched against yaml keys, with '_' standing in for '-', and the
// value is decoded as YAML.
func mungeFromEnvironment(config *Config, envPair string) (applied bool, name string, err error) {
	equalIdx := strings.IndexByte(envPair, '=')
	if equalIdx == -1 {
		return false, "", nil
	}
	name, value := envPair[:equalIdx], envPair[equalIdx+1:]
	if !strings.HasPrefix(name, envPrefix) {
		return false, "", nil
	}
	name = strings.ToLower(strings.TrimPrefix(name, envPrefix))
	pathComponents := strings.Split(name, "__")
	for i, pathComponent := range pathComponents {
		if pathComponent == "" {
			return false, "", &configPathError{name, "invalid", ErrEnvironmentOverrideMalformed}
		}
		pathComponents[i] = strings.ReplaceAll(pathComponent, "_", "-")
	}

	v := reflect.ValueOf(config).Elem()
	for _, component := range pathComponents {
		if v.Kind() != reflect.Struct {
			return false, "", &configPathError{name, "index into non-struct", nil}
		}
		field, found := fieldForYAMLKey(v.Type(), component)
		if !found {
			return false, "", &configPathError{name, fmt.Sprintf("couldn't resolve path component: `%s`", component), nil}
		}
		v = v.FieldByIndex(field.Index)
		if v.Kind() == reflect.Ptr {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
	}

	if yamlErr := yaml.Unmarshal([]byte(value), v.Addr().Interface()); yamlErr != nil {
		return false, "", &configPathError{name, "couldn't deserialize YAML", yamlErr}
	}
	return true, name, nil
}

// fieldForYAMLKey finds the exported field yaml.v2 would decode key into.
func fieldForYAMLKey(t reflect.Type, key string) (field reflect.StructField, found bool) {
	for i := 0; i < t.NumField(); i++ {
		field = t.Field(i)
		if field.PkgPath != "" {
			continue
		}
		tagName, options, _ := strings.Cut(field.Tag.Get("yaml"), ",")
		if tagName == "-" {
			continue
		}
		// keys of an inline struct belong to the enclosing one
		if options == "inline" && field.Type.Kind() == reflect.Struct {
			if inner, ok := fieldForYAMLKey(field.Type, key); ok {
				inner.Index = append([]int{i}, inner.Index...)
				return inner, true
			}
			continue
		}
		if tagName == "" {
			tagName = strings.ToLower(field.Name)
		}
		if tagName == key {
			return field, true
		}
	}
	return field, false
}

// LoadConfig reads filename, applies environment overrides and prepares
// the result.
func LoadConfig(filename string) (config *Config, err error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	config, err = ParseConfig(data, os.Environ())
	if err != nil {
		return nil, err
	}
	config.Filename = filename
	return config, nil
}

// ParseConfig decodes YAML, applies overrides from environ and prepares
// the result.
func ParseConfig(data []byte, environ []string) (config *Config, err error) {
	config = new(Config)
	if err = yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}
	for _, envPair := range environ {
		if _, _, err = mungeFromEnvironment(config, envPair); err != nil {
			return nil, err
		}
	}
	if err = config.Prepare(); err != nil {
		return nil, err
	}
	return config, nil
}

// Prepare validates the config and fills in the derived fields. Configs
// built in code must be prepared before they are passed to Connect.
func (config *Config) Prepare() (err error) {
	if config.Server.Host == "" {
		return missingParameter("server.host", ErrHostMissing)
	}
	if !utils.IsServerAddress(config.Server.Host) {
		return fmt.Errorf("%w: %s", ErrHostInvalid, config.Server.Host)
	}
	if len(config.Server.Ports) == 0 {
		return missingParameter("server.ports", ErrPortsMissing)
	}
	for _, port := range config.Server.Ports {
		if port.Number == 0 {
			return ErrPortInvalid
		}
	}
	for _, policy := range config.Server.Policies {
		if err = policy.Validate(); err != nil {
			return err
		}
	}

	// a duration set in code survives an empty string
	if err = parseDuration(config.Server.ConnectTimeoutString, &config.Server.ConnectTimeout); err != nil {
		return fmt.Errorf("Could not parse connect-timeout: %s", err.Error())
	}
	if err = parseDuration(config.Server.PollIntervalString, &config.Server.PollInterval); err != nil {
		return fmt.Errorf("Could not parse poll-interval: %s", err.Error())
	}
	if config.Server.PollInterval <= 0 {
		config.Server.PollInterval = DefaultPollInterval
	}
	if err = parseDuration(config.Server.RegistrationTimeoutString, &config.Server.RegistrationTimeout); err != nil {
		return fmt.Errorf("Could not parse registration-timeout: %s", err.Error())
	}

	if config.Limits.ReadQString != "" {
		readQBytes, err := bytefmt.ToBytes(config.Limits.ReadQString)
		if err != nil {
			return fmt.Errorf("Could not parse readq size (make sure it only contains whole numbers): %s", err.Error())
		}
		config.Limits.ReadQBytes = int(readQBytes)
	}
	if config.Limits.ReadQBytes == 0 {
		config.Limits.ReadQBytes = DefaultReadQBytes
	}
	if config.Limits.ReadQBytes < MaxLineLen {
		return fmt.Errorf("%w: %d", ErrReadQTooSmall, config.Limits.ReadQBytes)
	}

	if config.Identity.Nick == "" {
		return missingParameter("identity.nick", ErrNickMissing)
	}
	if err = config.Limits.Nickname(config.Identity.Nick); err != nil {
		return fmt.Errorf("identity.nick: %w", err)
	}
	if err = config.Limits.Username(config.Identity.username()); err != nil {
		return fmt.Errorf("identity.user: %w", err)
	}
	if err = config.Limits.RealName(config.Identity.RealName); err != nil {
		return fmt.Errorf("identity.real-name: %w", err)
	}

	config.Logging, err = prepareLogging(config.Logging)
	return err
}

func parseDuration(str string, out *time.Duration) (err error) {
	if str == "" {
		return nil
	}
	*out, err = utils.ParseDuration(str)
	return err
}

func prepareLogging(configs []logger.LoggingConfig) (result []logger.LoggingConfig, err error) {
	for _, logConfig := range configs {
		// methods
		methods := make(map[string]bool)
		for _, method := range strings.Split(logConfig.Method, " ") {
			if len(method) > 0 {
				methods[strings.ToLower(method)] = true
			}
		}
		if methods["file"] && logConfig.Filename == "" {
			return nil, ErrLoggerFilenameMissing
		}
		logConfig.MethodFile = methods["file"]
		logConfig.MethodStdout = methods["stdout"]
		logConfig.MethodStderr = methods["stderr"]

		// levels
		level, exists := logger.LogLevelNames[strings.ToLower(logConfig.LevelString)]
		if !exists {
			return nil, fmt.Errorf("Could not translate log level [%s]", logConfig.LevelString)
		}
		logConfig.Level = level

		// types
		logConfig.Types, logConfig.ExcludedTypes = nil, nil
		for _, typeStr := range strings.Split(logConfig.TypeString, " ") {
			if len(typeStr) == 0 {
				continue
			}
			if typeStr == "-" {
				return nil, ErrLoggerExcludeEmpty
			}
			if typeStr[0] == '-' {
				logConfig.ExcludedTypes = append(logConfig.ExcludedTypes, typeStr[1:])
			} else {
				logConfig.Types = append(logConfig.Types, typeStr)
			}
		}
		if len(logConfig.Types) < 1 {
			return nil, ErrLoggerHasNoTypes
		}

		result = append(result, logConfig)
	}
	return result, nil
}

// NewLogger builds the log manager the config describes.
func (config *Config) NewLogger() (*logger.Manager, error) {
	return logger.NewManager(config.Logging)
}

package credentialexchange

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	ini "gopkg.in/ini.v1"
)

var ErrConfigFailure = errors.New("config error")

func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		logrus.Fatalf("unable to get the user home dir: %s", err)
	}
	return home
}

func ConfigIniFile(basePath string) string {
	var base string
	if basePath != "" {
		base = basePath
	} else {
		base = HomeDir()
	}
	return path.Join(base, fmt.Sprintf(".%s.ini", SELF_NAME))
}

// LoadCredentialConfig fills conf from the defaults section of the config
// file. A missing file leaves conf untouched.
func LoadCredentialConfig(iniFile string, conf *CredentialConfig) error {
	if _, err := os.Stat(iniFile); os.IsNotExist(err) {
		return nil
	}
	cfg, err := ini.Load(iniFile)
	if err != nil {
		return fmt.Errorf("fail to read Ini file: %v, %w", err, ErrConfigFailure)
	}
	if !cfg.HasSection(CONF_DEFAULTS_SECTION) {
		return nil
	}
	section := cfg.Section(CONF_DEFAULTS_SECTION)
	if err := section.StrictMapTo(conf); err != nil {
		return fmt.Errorf("%s: %v, %w", CONF_DEFAULTS_SECTION, err, ErrConfigFailure)
	}
	if err := section.StrictMapTo(&conf.BaseConfig); err != nil {
		return fmt.Errorf("%s: %v, %w", CONF_DEFAULTS_SECTION, err, ErrConfigFailure)
	}
	return nil
}

// SetCredentials writes creds to the named profile when StoreInProfile is
// set, otherwise prints the credential_process payload to out.
func SetCredentials(creds *AWSCredentials, config CredentialConfig, out io.Writer) error {
	if config.BaseConfig.StoreInProfile {
		return storeCredentialsInProfile(*creds, config.BaseConfig.CfgSectionName)
	}
	return returnStdOutAsJson(*creds, out)
}

func sharedCredentialsFile() (string, error) {
	if overriddenpath, exists := os.LookupEnv("AWS_SHARED_CREDENTIALS_FILE"); exists && overriddenpath != "" {
		return overriddenpath, nil
	}
	awsDir := path.Join(HomeDir(), ".aws")
	if err := os.MkdirAll(awsDir, 0700); err != nil {
		return "", err
	}
	return path.Join(awsDir, "credentials"), nil
}

func storeCredentialsInProfile(creds AWSCredentials, configSection string) error {
	awsConfPath, err := sharedCredentialsFile()
	if err != nil {
		return err
	}

	cfg, err := ini.LooseLoad(awsConfPath)
	if err != nil {
		return err
	}
	cfg.Section(configSection).Key("aws_access_key_id").SetValue(creds.AWSAccessKey)
	cfg.Section(configSection).Key("aws_secret_access_key").SetValue(creds.AWSSecretKey)
	cfg.Section(configSection).Key("aws_session_token").SetValue(creds.AWSSessionToken)
	cfg.Section(configSection).Key("expiration").SetValue(creds.Expires.UTC().Format(time.RFC3339))
	return cfg.SaveTo(awsConfPath)
}

func returnStdOutAsJson(creds AWSCredentials, out io.Writer) error {
	creds.Version = 1

	jsonBytes, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out, string(jsonBytes))
	return err
}

// ReloadBeforeExpiry returns true if the time
// to expiry is less than the specified time in seconds
// false if there is more than required time in seconds
// before needing to recycle credentials
func ReloadBeforeExpiry(expiry time.Time, reloadBeforeSeconds int) bool {
	now := time.Now().Local()
	diff := expiry.Local().Sub(now)
	return diff.Seconds() < float64(reloadBeforeSeconds)
}

// WriteIniSection update ini sections in own config file
func WriteIniSection(role string) error {
	section := fmt.Sprintf("%s.%s", INI_CONF_SECTION, RoleKeyConverter(role))
	cfg, err := ini.LooseLoad(ConfigIniFile(""))
	if err != nil {
		return fmt.Errorf("fail to read Ini file: %v, %w", err, ErrConfigFailure)
	}
	if !cfg.HasSection(section) {
		sct, err := cfg.NewSection(section)
		if err != nil {
			return err
		}
		sct.Key("name").SetValue(role)
		return cfg.SaveTo(ConfigIniFile(""))
	}

	return nil
}

func GetAllIniSections() ([]string, error) {
	sections := []string{}
	cfg, err := ini.LooseLoad(ConfigIniFile(""))
	if err != nil {
		return nil, err
	}
	for _, v := range cfg.Section(INI_CONF_SECTION).ChildSections() {
		sections = append(sections, strings.Replace(v.Name(), fmt.Sprintf("%s.", INI_CONF_SECTION), "", -1))
	}
	return sections, nil
}

// ClearIniSections removes the role sections from own config file, the
// defaults section is kept.
func ClearIniSections() error {
	cfg, err := ini.LooseLoad(ConfigIniFile(""))
	if err != nil {
		return fmt.Errorf("fail to read Ini file: %v, %w", err, ErrConfigFailure)
	}
	for _, v := range cfg.Section(INI_CONF_SECTION).ChildSections() {
		cfg.DeleteSection(v.Name())
	}
	cfg.DeleteSection(INI_CONF_SECTION)
	return cfg.SaveTo(ConfigIniFile(""))
}

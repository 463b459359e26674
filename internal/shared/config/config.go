package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// DefaultServerURL is used when no URL is configured anywhere
const DefaultServerURL = "http://localhost:8080"

var (
	cfgFile   string
	serverURL string
)

// InitConfig initializes the shared configuration system
func InitConfig() {
	cobra.OnInitialize(loadConfig)
}

// AddFlags adds common configuration flags to a cobra command
func AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.nextintern/config.yaml)")
	cmd.PersistentFlags().StringVar(&serverURL, "url", "", "internd API endpoint")

	// Bind flags to viper
	viper.BindPFlag("url", cmd.PersistentFlags().Lookup("url"))
}

// loadConfig loads configuration from file and environment
func loadConfig() {
	viper.SetConfigFile(ConfigFile())
	viper.SetConfigType("yaml")

	// Read environment variables
	viper.SetEnvPrefix("INTERNCTL")
	viper.AutomaticEnv()

	// A missing config file is fine; configure creates it
	_ = viper.ReadInConfig()
}

// ConfigFile returns the path of the config file in use
func ConfigFile() string {
	if cfgFile != "" {
		return cfgFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".nextintern", "config.yaml")
	}
	return filepath.Join(home, ".nextintern", "config.yaml")
}

// GetURL returns the configured internd URL
func GetURL() string {
	if serverURL != "" {
		return serverURL
	}
	if u := viper.GetString("url"); u != "" {
		return u
	}
	return DefaultServerURL
}

// GetEmail returns the email remembered by configure
func GetEmail() string {
	return viper.GetString("email")
}

// ValidateConfig validates that required configuration is present
func ValidateConfig() error {
	u := GetURL()
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return fmt.Errorf("internd URL must start with http:// or https:// (set INTERNCTL_URL env var, --url flag, or url in config file)")
	}
	return nil
}

// ConfigureRequest represents configuration input
type ConfigureRequest struct {
	URL   string
	Email string
}

// ConfigureInteractive prompts for the server URL and the default login email
func ConfigureInteractive(in io.Reader, out io.Writer, currentURL, currentEmail string) (*ConfigureRequest, error) {
	reader := bufio.NewReader(in)

	urlInput, err := prompt(reader, out, "internd URL", currentURL)
	if err != nil {
		return nil, err
	}
	emailInput, err := prompt(reader, out, "Email", currentEmail)
	if err != nil {
		return nil, err
	}

	// Validate required fields
	if urlInput == "" {
		return nil, fmt.Errorf("URL is required")
	}

	return &ConfigureRequest{URL: urlInput, Email: emailInput}, nil
}

// Prompt reads one line from in, showing label and the current value. An
// empty answer keeps current.
func Prompt(in io.Reader, out io.Writer, label, current string) (string, error) {
	return prompt(bufio.NewReader(in), out, label, current)
}

func prompt(reader *bufio.Reader, out io.Writer, label, current string) (string, error) {
	fmt.Fprint(out, label)
	if current != "" {
		fmt.Fprintf(out, " [%s]", current)
	}
	fmt.Fprint(out, ": ")

	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		line = current
	}
	return line, nil
}

// ReadPassword prompts for a password without echoing it
func ReadPassword(out io.Writer, label string) (string, error) {
	fmt.Fprintf(out, "%s: ", label)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Fprintln(out) // Add newline after password input
	return strings.TrimSpace(string(bytePassword)), nil
}

// SaveConfig saves configuration to the config file
func SaveConfig(req ConfigureRequest) error {
	path := ConfigFile()

	// Create config directory
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set values in viper
	viper.Set("url", req.URL)
	viper.Set("email", req.Email)

	// Write config file
	viper.SetConfigPermissions(0600)
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

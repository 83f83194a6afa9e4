// Package setup provides the terminal wizard that generates a dashboard
// config file.
package setup

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/polyboard/polyboard/config"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// RunTUI launches the terminal configuration wizard and writes config.gen.yaml.
func RunTUI() error {
	backendURL := config.DefaultBackendURL
	websocketURL := config.DefaultWebsocketURL
	listenAddr := config.DefaultListenAddr
	reconnectStr := config.DefaultReconnectDelay.String()
	pollStr := config.DefaultPollPriceInterval.String()
	equityStr := "1000"
	var confirm bool

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("POLYBOARD CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Point the dashboard at your bot backend.\n"))

	fmt.Println(stepStyle.Render("STEP 1: BACKEND"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Backend base URL").
				Description("The bot's query service, e.g. http://localhost:8000").
				Value(&backendURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Price stream URL").
				Description("Websocket endpoint, e.g. ws://localhost:8000/ws/prices").
				Value(&websocketURL).
				Validate(validateURL),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("POLYBOARD CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 2: DASHBOARD"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Listen address").
				Description("Where the dashboard serves, e.g. :8080").
				Value(&listenAddr),
			huh.NewInput().
				Title("Starting equity").
				Description("Seed of the cumulative equity curve").
				Value(&equityStr).
				Validate(validateEquity),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("POLYBOARD CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 3: TIMING"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Reconnect delay").
				Description("Pause before a stream reconnect attempt, e.g. 2s").
				Value(&reconnectStr).
				Validate(validateDuration),
			huh.NewInput().
				Title("Poll interval").
				Description("Cadence of the polled price fallback, e.g. 5s").
				Value(&pollStr).
				Validate(validateDuration),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("POLYBOARD CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("FINAL CONFIRMATION"))

	summary := fmt.Sprintf(
		"Backend: %s\nStream: %s\nListen: %s\nReconnect: %s\nPoll: %s\nEquity: %s\n",
		backendURL, websocketURL, listenAddr, reconnectStr, pollStr, equityStr,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save and start").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}
	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	fc := config.FileConfig{
		BackendURL:        backendURL,
		WebsocketURL:      websocketURL,
		ListenAddr:        listenAddr,
		ReconnectDelay:    reconnectStr,
		PollPriceInterval: pollStr,
		StartingEquity:    equityStr,
	}

	data, err := yaml.Marshal(fc)
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}

	filename := "config.gen.yaml"
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s\nStarting dashboard...", filename)))
	time.Sleep(1500 * time.Millisecond) // small pause to read success message
	return nil
}

func validateURL(s string) error {
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("must be a full URL with scheme and host")
	}
	return nil
}

func validateDuration(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("must be a duration like 2s or 500ms")
	}
	if d <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}

func validateEquity(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if !d.IsPositive() {
		return fmt.Errorf("must be positive")
	}
	return nil
}

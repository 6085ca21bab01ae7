package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Identity:
		o.printIdentity(v)
	case IdentityList:
		o.printIdentityList(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Identity response type (matches API)
type Identity struct {
	WalletID    string    `json:"wallet_id"`
	DisplayName string    `json:"display_name"`
	Skin        string    `json:"skin"`
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	Rotation    float64   `json:"rotation"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IdentityList response type
type IdentityList struct {
	Identities []Identity `json:"identities"`
}

// HealthResult response type
type HealthResult struct {
	Status           string `json:"status"`
	ConnectedClients int    `json:"connected_clients"`
}

func (o *Output) printIdentity(id Identity) {
	fmt.Printf("Wallet: %s\n", id.WalletID)
	fmt.Printf("Name: %s\n", id.DisplayName)
	fmt.Printf("Skin: %s\n", id.Skin)
	fmt.Printf("Position: (%.1f, %.1f) rot %.2f\n", id.X, id.Y, id.Rotation)
	fmt.Printf("Created: %s\n", id.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Updated: %s\n", id.UpdatedAt.Format(time.RFC3339))
}

func (o *Output) printIdentityList(list IdentityList) {
	fmt.Printf("Identities (%d):\n", len(list.Identities))
	for _, id := range list.Identities {
		fmt.Printf("  - %s: %s [%s] at (%.1f, %.1f)\n",
			id.WalletID, id.DisplayName, id.Skin, id.X, id.Y)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
	fmt.Printf("Connected: %d\n", h.ConnectedClients)
}

package mojang

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const defaultStatusURL = "https://status.mojang.com/summary.json"

// ServiceColor is the aggregated health indicator for one Yggdrasil/MSA
// service slug, as projected for a status dashboard.
type ServiceColor string

const (
	ColorGreen  ServiceColor = "green"
	ColorYellow ServiceColor = "yellow"
	ColorRed    ServiceColor = "red"
	ColorGrey   ServiceColor = "grey"
)

// KnownServices is the fixed set of slugs this module projects a color
// for, per spec §6's status-endpoint shape.
var KnownServices = []string{
	"mojang-multiplayer-session-service",
	"microsoft-o-auth-server",
	"xbox-live-auth-server",
	"xbox-live-gatekeeper",
	"microsoft-minecraft-api",
	"microsoft-minecraft-profile",
}

type statusEntry struct {
	Slug   string `json:"slug"`
	Status string `json:"status"`
}

// Status fetches the published summary.json and projects every known
// service slug into a color: "up" is green, "down" is red. A slug absent
// from the response, or reported with any other status, stays grey; any
// failure reaching or decoding the endpoint yields grey for every known
// slug.
func (c *Client) Status(ctx context.Context) map[string]ServiceColor {
	result := make(map[string]ServiceColor, len(KnownServices))
	for _, slug := range KnownServices {
		result[slug] = ColorGrey
	}

	entries, err := c.fetchStatus(ctx)
	if err != nil {
		return result
	}

	bySlug := make(map[string]string, len(entries))
	for _, e := range entries {
		bySlug[e.Slug] = e.Status
	}

	for _, slug := range KnownServices {
		switch bySlug[slug] {
		case "up":
			result[slug] = ColorGreen
		case "down":
			result[slug] = ColorRed
		}
	}
	return result
}

func (c *Client) fetchStatus(ctx context.Context) ([]statusEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.statusURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mojang: status endpoint returned %d", resp.StatusCode)
	}
	var entries []statusEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("mojang: decoding status response: %w", err)
	}
	return entries, nil
}

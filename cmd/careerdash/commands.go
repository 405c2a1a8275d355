package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/apexathon/careerdash/internal/chat"
	"github.com/apexathon/careerdash/internal/config"
	"github.com/apexathon/careerdash/internal/dashboard"
	"github.com/apexathon/careerdash/internal/reveal"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// --- form ---

var formCmd = &cobra.Command{
	Use:   "form",
	Short: "Fill in and submit the profile form",
}

var formOptionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List form fields and their allowed values",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/form/options")
		if err != nil {
			return err
		}

		var opts struct {
			Fields  []string            `json:"fields"`
			Options map[string][]string `json:"options"`
			Age     map[string]int      `json:"age"`
		}
		if err := decodeJSON(resp, &opts); err != nil {
			return err
		}

		for _, f := range opts.Fields {
			fmt.Println(colorize(colorBold, f))
			if values, ok := opts.Options[f]; ok {
				for _, v := range values {
					fmt.Printf("  - %s\n", v)
				}
			} else {
				fmt.Printf("  integer %d to %d\n", opts.Age["min"], opts.Age["max"])
			}
		}
		return nil
	},
}

var formShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current draft",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/form/draft")
		if err != nil {
			return err
		}
		var draft map[string]string
		if err := decodeJSON(resp, &draft); err != nil {
			return err
		}
		return printJSON(os.Stdout, draft)
	},
}

var formSetCmd = &cobra.Command{
	Use:   "set <field> <value>",
	Short: "Set one draft field",
	Long: `Set one draft field. The draft is saved after every change.

Examples:
  careerdash form set province Ontario
  careerdash form set age 34
  careerdash form set education "Bachelor's degree"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		field, value := args[0], args[1]

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.patch(cmd.Context(), "/form/draft", map[string]string{field: value})
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, nil); err != nil {
			return err
		}

		printSuccess("Set %s = %s", field, value)
		return nil
	},
}

var formSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Validate the draft and store it as the current profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/form/submit", nil)
		if err != nil {
			return err
		}
		var p map[string]any
		if err := decodeJSON(resp, &p); err != nil {
			return err
		}

		printSuccess("Profile submitted")
		return printJSON(os.Stdout, p)
	},
}

var formResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard the draft",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.delete(cmd.Context(), "/form/draft")
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, nil); err != nil {
			return err
		}
		printSuccess("Draft discarded")
		return nil
	},
}

func init() {
	formCmd.AddCommand(formOptionsCmd, formShowCmd, formSetCmd, formSubmitCmd, formResetCmd)
}

// --- profile ---

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Inspect the submitted profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the submitted profile as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/profile")
		if err != nil {
			return err
		}
		var p any
		if err := decodeJSON(resp, &p); err != nil {
			return err
		}
		return printJSON(os.Stdout, p)
	},
}

var profileClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the submitted profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.delete(cmd.Context(), "/profile")
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, nil); err != nil {
			return err
		}
		printSuccess("Profile removed")
		return nil
	},
}

func init() {
	profileCmd.AddCommand(profileShowCmd, profileClearCmd)
}

// --- dashboard ---

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Job recommendation dashboard",
}

var dashboardOpenCmd = &cobra.Command{
	Use:   "open",
	Short: "Mount a dashboard and print recommendations as they are revealed",
	RunE: func(cmd *cobra.Command, args []string) error {
		keep, _ := cmd.Flags().GetBool("keep")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		id, err := openDashboard(cmd.Context(), client, os.Stdout, keep)
		if err != nil {
			return err
		}
		if keep {
			printStep("Dashboard %s left mounted", id)
		}
		return nil
	},
}

func init() {
	dashboardOpenCmd.Flags().Bool("keep", false, "leave the dashboard mounted after the last reveal")
	dashboardCmd.AddCommand(dashboardOpenCmd)
}

// openDashboard mounts a dashboard, streams its reveal events to w and
// unmounts it unless keep is set.
func openDashboard(ctx context.Context, client *apiClient, w io.Writer, keep bool) (string, error) {
	resp, err := client.post(ctx, "/dashboards", nil)
	if err != nil {
		return "", err
	}
	var view dashboard.View
	if err := decodeJSON(resp, &view); err != nil {
		return "", err
	}
	if !keep {
		defer unmountDashboard(client, view.ID)
	}

	printStep("Finding job recommendations...")
	stream, err := client.streaming().get(ctx, "/dashboards/"+view.ID+"/events")
	if err != nil {
		return view.ID, err
	}
	if stream.StatusCode >= 400 {
		return view.ID, decodeJSON(stream, nil)
	}
	defer stream.Body.Close()

	shown := make(map[int]bool)
	err = readSSE(stream.Body, func(name, data string) (bool, error) {
		switch name {
		case "snapshot":
			var v dashboard.View
			if err := json.Unmarshal([]byte(data), &v); err != nil {
				return false, fmt.Errorf("decoding snapshot: %w", err)
			}
			for _, c := range v.Recommendations {
				if !shown[c.ID] {
					shown[c.ID] = true
					printCard(w, c.Recommendation)
				}
			}
		case string(reveal.EventReveal):
			var ev reveal.Event
			if err := json.Unmarshal([]byte(data), &ev); err != nil {
				return false, fmt.Errorf("decoding reveal: %w", err)
			}
			if ev.Item != nil && !shown[ev.Item.ID] {
				shown[ev.Item.ID] = true
				printCard(w, *ev.Item)
			}
		case string(reveal.EventDone), "unmounted":
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return view.ID, err
	}
	if len(shown) == 0 {
		printWarning("No recommendations")
	}
	return view.ID, nil
}

func unmountDashboard(client *apiClient, id string) {
	resp, err := client.delete(context.Background(), "/dashboards/"+id)
	if err != nil {
		printWarning("could not unmount dashboard %s: %v", id, err)
		return
	}
	if err := decodeJSON(resp, nil); err != nil {
		printWarning("could not unmount dashboard %s: %v", id, err)
	}
}

// readSSE calls fn for every event in r until fn reports done or the stream
// ends.
func readSSE(r io.Reader, fn func(name, data string) (bool, error)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64<<10), 1<<20)

	var name string
	var data []string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if name == "" && len(data) == 0 {
				continue
			}
			done, err := fn(name, strings.Join(data, "\n"))
			if err != nil || done {
				return err
			}
			name, data = "", nil
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = append(data, strings.TrimPrefix(line, "data: "))
		}
	}
	return scanner.Err()
}

// --- chat ---

var chatCmd = &cobra.Command{
	Use:   "chat <question>",
	Short: "Ask a career question",
	Long: `Ask a career question. The submitted profile is added as context.

Without --dashboard a temporary dashboard is mounted for the question.

Examples:
  careerdash chat "Which certifications help a data analyst?"
  careerdash chat --dashboard 6f1c... "What about remote roles?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dashboardID, _ := cmd.Flags().GetString("dashboard")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		reply, err := askQuestion(cmd.Context(), client, dashboardID, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Println(reply)
		return nil
	},
}

func init() {
	chatCmd.Flags().String("dashboard", "", "id of a mounted dashboard whose chat to continue")
}

// askQuestion sends question to a dashboard's chat and returns the reply.
func askQuestion(ctx context.Context, client *apiClient, dashboardID, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("question is required")
	}

	if dashboardID == "" {
		resp, err := client.post(ctx, "/dashboards", nil)
		if err != nil {
			return "", err
		}
		var view dashboard.View
		if err := decodeJSON(resp, &view); err != nil {
			return "", err
		}
		dashboardID = view.ID
		defer unmountDashboard(client, dashboardID)
	}

	resp, err := client.post(ctx, "/dashboards/"+dashboardID+"/chat", map[string]string{"message": question})
	if err != nil {
		return "", err
	}
	var result struct {
		Transcript []chat.Message `json:"transcript"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		return "", err
	}
	if len(result.Transcript) == 0 {
		return "", fmt.Errorf("empty transcript")
	}
	last := result.Transcript[len(result.Transcript)-1]
	if last.Content == chat.Apology {
		return "", fmt.Errorf("%s", last.Content)
	}
	return last.Content, nil
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		sort.Slice(keys, func(i, j int) bool { return keys[i].Key < keys[j].Key })
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/storage"
)

// SeedFile is the YAML guest list accepted by the seed command.
//
//	guests:
//	  - name: Jane Roe
//	    email: jane@example.com
type SeedFile struct {
	Guests []SeedGuest `yaml:"guests"`
}

// SeedGuest is one invited guest.
type SeedGuest struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email,omitempty"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <guests.yaml>",
		Short: "Load invited guests into the guest list",
		Long: `Load invited guests from a YAML file.

Guests whose exact name is already on the list are skipped, so the same
file can be loaded more than once. Names are not checked against partial
matches the way RSVP additions are.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open seed file: %w", err)
			}
			defer f.Close()

			guests, err := ParseSeed(f)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), rootOpts, cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			added, skipped, err := Seed(cmd.Context(), a.store, guests)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d guest(s), skipped %d already on the list.\n", added, skipped)
			return nil
		},
	}
}

// ParseSeed decodes a seed file and rejects guests without a name.
func ParseSeed(r io.Reader) ([]SeedGuest, error) {
	var file SeedFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	for i := range file.Guests {
		file.Guests[i].Name = strings.TrimSpace(file.Guests[i].Name)
		file.Guests[i].Email = strings.TrimSpace(file.Guests[i].Email)
		if file.Guests[i].Name == "" {
			return nil, fmt.Errorf("guest %d has no name", i+1)
		}
	}
	return file.Guests, nil
}

// Seed inserts guests directly into the store, skipping exact name matches.
func Seed(ctx context.Context, store storage.GuestStore, guests []SeedGuest) (added, skipped int, err error) {
	for _, sg := range guests {
		existing, err := store.FindByName(ctx, sg.Name)
		if err != nil {
			return added, skipped, fmt.Errorf("failed to check %q: %w", sg.Name, err)
		}
		if hasExactName(existing, sg.Name) {
			skipped++
			continue
		}

		g := models.Guest{Name: sg.Name}
		if sg.Email != "" {
			g.Email = models.StringPtr(sg.Email)
		}
		if err := store.Insert(ctx, &g); err != nil {
			return added, skipped, fmt.Errorf("failed to add %q: %w", sg.Name, err)
		}
		added++
	}
	return added, skipped, nil
}

func hasExactName(guests []models.Guest, name string) bool {
	for _, g := range guests {
		if strings.EqualFold(g.Name, name) {
			return true
		}
	}
	return false
}

package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/rsvp"
	"wedding-rsvp/internal/storage"
)

const rule = "------------------------------------------------------------"

// NewConsoleCommand creates the console command.
func NewConsoleCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "console",
		Short:        "Manage the guest list interactively",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), rootOpts, cmd.ErrOrStderr(), true)
			if err != nil {
				return err
			}
			defer a.Close()

			return NewConsole(a.engine, cmd.InOrStdin(), cmd.OutOrStdout()).Run(cmd.Context())
		},
	}
}

// Console is a line-oriented menu over the engine, for hosts taking
// responses by phone or at the door.
type Console struct {
	engine    *rsvp.Engine
	scanner   *bufio.Scanner
	out       io.Writer
	selection rsvp.Selection
}

// NewConsole creates a console reading commands from in.
func NewConsole(engine *rsvp.Engine, in io.Reader, out io.Writer) *Console {
	return &Console{
		engine:  engine,
		scanner: bufio.NewScanner(in),
		out:     out,
	}
}

// Run shows the menu until the user exits, input ends or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		c.println("\nCommands:")
		c.println("  1. Record a guest response")
		c.println("  2. View all guests")
		c.println("  3. View guests by status")
		c.println("  4. Add guest")
		c.println("  5. Edit response")
		c.println("  6. Reset response")
		c.println("  7. Exit")

		command, ok := c.prompt("\nEnter command (1-7): ")
		if !ok {
			return c.scanner.Err()
		}

		switch command {
		case "1":
			c.respond(ctx)
		case "2":
			c.viewGuests(ctx, storage.ListFilter{})
		case "3":
			c.viewGuestsByStatus(ctx)
		case "4":
			c.addGuest(ctx)
		case "5":
			c.editResponse(ctx)
		case "6":
			c.resetResponse(ctx)
		case "7":
			c.println("Exiting...")
			return nil
		default:
			c.println("Invalid command. Please try again.")
		}
	}
	return ctx.Err()
}

// respond walks a guest through search, selection, decision and an
// optional plus-one.
func (c *Console) respond(ctx context.Context) {
	c.selection.Clear()

	name, ok := c.prompt("Enter guest name: ")
	if !ok {
		return
	}
	result, err := c.engine.Search(ctx, name)
	if err != nil {
		c.fail(err)
		return
	}
	c.println(result.Message())
	if result.Outcome != models.SearchFound {
		return
	}

	for i, g := range result.Guests {
		c.printf("  %d. %s\n", i+1, g.Name)
	}
	choice, ok := c.prompt(fmt.Sprintf("Select guest (1-%d): ", len(result.Guests)))
	if !ok {
		return
	}
	if n, err := strconv.Atoi(choice); err == nil && n >= 1 && n <= len(result.Guests) {
		c.selection.Toggle(result.Guests[n-1].ID)
	}
	guestID, err := c.selection.Require()
	if err != nil {
		c.fail(err)
		return
	}

	answer, ok := c.prompt("Will you attend? (yes/no): ")
	if !ok {
		return
	}
	response, ok := parseAnswer(answer)
	if !ok {
		c.println("Not a clear answer. Please reply yes or no.")
		return
	}

	email, ok := c.prompt("Enter email: ")
	if !ok {
		return
	}

	guest, err := c.engine.Respond(ctx, rsvp.RespondRequest{GuestID: guestID, Email: email, Response: response})
	if err != nil && guest == nil {
		c.fail(err)
		return
	}
	if err != nil {
		c.printf("⚠️  Response recorded but %s\n", rsvp.MessageOf(err))
	} else {
		c.printf("✅ %s has %s.\n", guest.Name, guest.Response.Label())
	}
	c.selection.Clear()

	if response != models.ResponseAccepted {
		return
	}
	plusOne, ok := c.prompt("Plus-one name (leave blank for none): ")
	if !ok || plusOne == "" {
		return
	}
	added, err := c.engine.AddPlusOne(ctx, guest.ID, plusOne)
	if err != nil {
		c.fail(err)
		return
	}
	c.printf("✅ Plus-one %s added.\n", added.Name)
}

func (c *Console) viewGuests(ctx context.Context, filter storage.ListFilter) {
	guests, err := c.engine.ListResponses(ctx, filter)
	if err != nil {
		c.fail(err)
		return
	}
	if len(guests) == 0 {
		c.println("\nNo guests found.")
		return
	}

	c.printf("\n📋 Guests (%d total):\n", len(guests))
	c.println(rule)
	for _, g := range guests {
		c.printf("ID: %d\n", g.ID)
		c.printf("Name: %s\n", g.Name)
		if email := g.EmailAddress(); email != "" {
			c.printf("Email: %s\n", email)
		}
		c.printf("Status: %s\n", g.Response.Label())
		if g.RespondedAt != nil {
			c.printf("RSVP Date: %s\n", g.RespondedAt.Format("2006-01-02 15:04:05"))
		}
		c.println(rule)
	}
}

func (c *Console) viewGuestsByStatus(ctx context.Context) {
	c.println("\nSelect status:")
	c.println("  1. Pending")
	c.println("  2. Accepted")
	c.println("  3. Declined")

	choice, ok := c.prompt("Enter choice (1-3): ")
	if !ok {
		return
	}

	var response models.Response
	switch choice {
	case "1":
		response = models.ResponseUnset
	case "2":
		response = models.ResponseAccepted
	case "3":
		response = models.ResponseDeclined
	default:
		c.println("Invalid choice.")
		return
	}
	c.viewGuests(ctx, storage.ListFilter{Response: &response})
}

func (c *Console) addGuest(ctx context.Context) {
	name, ok := c.prompt("Enter guest name: ")
	if !ok {
		return
	}
	email, ok := c.prompt("Enter email (optional): ")
	if !ok {
		return
	}

	guest, err := c.engine.AddGuest(ctx, name, email)
	if err != nil {
		c.fail(err)
		return
	}
	c.printf("✅ Added %s (ID %d).\n", guest.Name, guest.ID)
}

func (c *Console) editResponse(ctx context.Context) {
	id, ok := c.promptID()
	if !ok {
		return
	}
	answer, ok := c.prompt("New response (accept/decline): ")
	if !ok {
		return
	}
	response, _ := models.ParseDecision(answer)

	guest, err := c.engine.EditResponse(ctx, id, response)
	if err != nil {
		c.fail(err)
		return
	}
	c.printf("✅ %s is now %s.\n", guest.Name, guest.Response.Label())
}

func (c *Console) resetResponse(ctx context.Context) {
	id, ok := c.promptID()
	if !ok {
		return
	}

	guest, err := c.engine.ResetResponse(ctx, id)
	if err != nil {
		c.fail(err)
		return
	}
	c.printf("✅ %s can respond again.\n", guest.Name)
}

func (c *Console) promptID() (int64, bool) {
	raw, ok := c.prompt("Enter guest ID: ")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.println("❌ Invalid guest ID.")
		return 0, false
	}
	return id, true
}

func (c *Console) prompt(label string) (string, bool) {
	fmt.Fprint(c.out, label)
	if !c.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.scanner.Text()), true
}

func (c *Console) fail(err error) {
	c.printf("❌ %s\n", rsvp.MessageOf(err))
}

func (c *Console) println(s string) {
	fmt.Fprintln(c.out, s)
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// parseAnswer reads a free-text yes or no.
func parseAnswer(text string) (models.Response, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	if r, err := models.ParseDecision(text); err == nil {
		return r, true
	}
	if containsAny(text, "yes", "yep", "yeah", "attending", "coming", "will be there", "✅") &&
		!containsAny(text, "not coming", "can't", "won't") {
		return models.ResponseAccepted, true
	}
	if containsAny(text, "no", "nope", "declin", "not coming", "can't", "won't", "❌") {
		return models.ResponseDeclined, true
	}
	return models.ResponseUnset, false
}

// containsAny checks if the text contains any of the given keywords
func containsAny(text string, keywords ...string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/terminal-bench/policedash/internal/auth"
	"github.com/terminal-bench/policedash/internal/communication"
	"github.com/terminal-bench/policedash/internal/events"
	"github.com/terminal-bench/policedash/internal/external"
	"github.com/terminal-bench/policedash/internal/jurisdiction"
	"github.com/terminal-bench/policedash/internal/models"
	"github.com/terminal-bench/policedash/pkg/crypto"
	"go.uber.org/zap"
)

var (
	resolveRole string
	tokenBadge  string
	tokenTTL    time.Duration
	firDistrict string
	firStatus   string
	pushTokens  []string
	pushTitle   string
	pushBody    string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <text>",
	Short: "Resolve free text to a canonical district or commissionerate",
	Example: `  policedash resolve "Anantapur District"
  policedash resolve --role CP "Vizag City Police"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, ok := jurisdiction.ParseRole(resolveRole)
		if !ok {
			return fmt.Errorf("unknown role %q", resolveRole)
		}
		return printJSON(cmd.OutOrStdout(), jurisdiction.ResolveDetailed(strings.Join(args, " "), role))
	},
}

var subCmd = &cobra.Command{
	Use:     "subjurisdictions <district>",
	Aliases: []string{"sub"},
	Short:   "List the SDPO divisions of a district or commissionerate",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, subs := jurisdiction.LookupSubJurisdictions(strings.Join(args, " "))
		if len(subs) == 0 {
			return fmt.Errorf("no sub-jurisdictions found for %q", key)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (%s)\n", key, subs[0].ParentRange)
		for _, s := range subs {
			fmt.Fprintf(out, "  %s\n", s.Name)
		}
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for a seeded officer",
	Long: `Issues a signed token for one of the seeded posts without a login.
Badges follow RANK-JURISDICTION, for example SP-NELLORE-DISTRICT.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		officer, err := seededOfficer(tokenBadge)
		if err != nil {
			return err
		}
		token, err := auth.IssueToken(cfg.JWTSecret, officer, tokenTTL, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events [subject]",
	Short: "Print domain events from the message bus",
	Long:  `Subscribes to policedash.> (or the given subject) and prints each event as a JSON line until interrupted.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.NATSURL == "" {
			return errors.New("NATS_URL is not configured")
		}
		subject := events.SubjectPrefix + ">"
		if len(args) == 1 {
			subject = args[0]
		}

		client, err := events.NewClient(events.DefaultConfig(cfg.NATSURL), logger)
		if err != nil {
			return err
		}
		defer client.Close()

		enc := json.NewEncoder(cmd.OutOrStdout())
		err = client.Subscribe(subject, func(e events.Event) {
			if err := enc.Encode(e); err != nil {
				logger.Warn("failed to print event", zap.Error(err))
			}
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		logger.Info("listening for events", zap.String("subject", subject))
		<-ctx.Done()
		return nil
	},
}

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a random ATTACHMENT_KEY",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		key, err := crypto.GenerateKey()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

var firCmd = &cobra.Command{
	Use:   "fir [number]",
	Short: "Look up FIRs in CCTNS",
	Long:  `Fetches one FIR by number, or searches by --district and --status when no number is given.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.CCTNS.Enabled() {
			return external.ErrNotConfigured
		}
		client := external.NewCCTNSClient(cfg.CCTNS, logger)

		if len(args) == 1 {
			fir, err := client.GetFIR(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), fir)
		}

		q := external.FIRQuery{Status: firStatus}
		if firDistrict != "" {
			key, ok := jurisdiction.LookupKey(firDistrict)
			if !ok {
				return fmt.Errorf("unknown district %q", firDistrict)
			}
			q.District = key
		}
		firs, err := client.SearchFIRs(cmd.Context(), q)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), firs)
	},
}

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Send a test push notification",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !cfg.Push.Enabled() {
			return external.ErrNotConfigured
		}
		res, err := external.NewPushClient(cfg.Push, logger).Send(cmd.Context(), external.PushMessage{
			Tokens: pushTokens,
			Title:  pushTitle,
			Body:   pushBody,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	resolveCmd.Flags().StringVarP(&resolveRole, "role", "r", string(jurisdiction.RoleSP), "rank the text is resolved for (DGP, DIG, SP, CP, SDPO)")

	tokenCmd.Flags().StringVarP(&tokenBadge, "badge", "b", "", "badge number of a seeded officer")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("badge")

	firCmd.Flags().StringVar(&firDistrict, "district", "", "district to search in")
	firCmd.Flags().StringVar(&firStatus, "status", "", "FIR status filter")

	pushCmd.Flags().StringSliceVar(&pushTokens, "token", nil, "device token (repeatable)")
	pushCmd.Flags().StringVar(&pushTitle, "title", "Test notification", "notification title")
	pushCmd.Flags().StringVar(&pushBody, "body", "", "notification body")
	_ = pushCmd.MarkFlagRequired("token")
}

func seededOfficer(badge string) (models.Officer, error) {
	badge = strings.ToUpper(strings.TrimSpace(badge))
	for _, o := range communication.SeedOfficers(time.Now()) {
		if o.BadgeNumber == badge {
			return o, nil
		}
	}
	return models.Officer{}, fmt.Errorf("no seeded officer with badge %q", badge)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/legacy-registry/profile-api/internal/session"
	"github.com/legacy-registry/profile-api/pkg/client"
)

func payCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pay",
		Short: "Create and verify publication payments",
	}

	var tier, key string
	create := &cobra.Command{
		Use:   "create <profile-id>",
		Short: "Open a payment order for a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := g.client().CreateOrder(cmd.Context(), args[0], tier, key)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), o)
		},
	}
	create.Flags().StringVar(&tier, "tier", "", "tier being purchased")
	create.Flags().StringVar(&key, "idempotency-key", "", "reuse to retry without opening a second order")
	_ = create.MarkFlagRequired("tier")
	cmd.AddCommand(create)

	var cb client.PaymentCallback
	verify := &cobra.Command{
		Use:   "verify",
		Short: "Verify a completed checkout and publish the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := g.client().VerifyPayment(cmd.Context(), cb)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	verify.Flags().StringVar(&cb.OrderID, "order", "", "gateway order id")
	verify.Flags().StringVar(&cb.PaymentID, "payment", "", "gateway payment id")
	verify.Flags().StringVar(&cb.Signature, "signature", "", "gateway signature")
	for _, f := range []string{"order", "payment", "signature"} {
		_ = verify.MarkFlagRequired(f)
	}
	cmd.AddCommand(verify)
	return cmd
}

func polishCommand(g *globalFlags) *cobra.Command {
	var req client.PolishRequest
	var file string
	cmd := &cobra.Command{
		Use:   "polish [bio]",
		Short: "Rewrite a biography with the AI polisher",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case file != "":
				b, err := readInput(cmd, file)
				if err != nil {
					return err
				}
				req.Bio = string(b)
			case len(args) == 1:
				req.Bio = args[0]
			default:
				return errors.New("pass the bio as an argument or with --file")
			}
			res, err := g.client().PolishBio(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&req.Tone, "tone", "professional", "professional, warm, inspirational or formal")
	cmd.Flags().StringVar(&req.Tier, "tier", "", "tier whose quota applies; defaults to the draft's tier")
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the bio from a file, or - for stdin")

	var statusTier string
	status := &cobra.Command{
		Use:   "status",
		Short: "Show AI polish availability and remaining quota",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := g.client().PolishStatus(cmd.Context(), statusTier)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), st)
		},
	}
	status.Flags().StringVar(&statusTier, "tier", "", "tier to report on")
	cmd.AddCommand(status)
	return cmd
}

func whoamiCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := g.logger()
			defer func() { _ = logger.Sync() }()

			token := g.token
			if token == "" {
				// Dev servers authenticate by subject; the session only needs a non-empty credential.
				token = strings.TrimSpace(g.subject)
			}
			s := session.New(g.client(), token, logger)
			s.Load(cmd.Context())
			if err := s.Wait(cmd.Context()); err != nil {
				return err
			}
			u, ok := s.Current()
			if !ok {
				if err := s.Err(); err != nil {
					return err
				}
				return errors.New("not signed in: pass --token or --subject")
			}
			return printJSON(cmd.OutOrStdout(), u)
		},
	}
}

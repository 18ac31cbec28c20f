package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/legacy-registry/profile-api/internal/content"
	"github.com/legacy-registry/profile-api/internal/domain"
	platformclock "github.com/legacy-registry/profile-api/internal/platform/clock"
	"github.com/legacy-registry/profile-api/pkg/client"
)

var errInvalidContent = errors.New("content is invalid")

type validateResult struct {
	Valid              bool              `json:"valid"`
	Errors             map[string]string `json:"errors,omitempty"`
	DisallowedSections []domain.Section  `json:"disallowedSections,omitempty"`
	Content            *content.Content  `json:"content,omitempty"`
}

// validateCommand checks a content file locally with the same rules the API applies.
func validateCommand() *cobra.Command {
	var tier string
	cmd := &cobra.Command{
		Use:   "validate <content.json|->",
		Short: "Validate profile content locally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			c, err := content.NewValidator(platformclock.NewSystemClock()).Validate(raw)
			var verr *content.ValidationError
			switch {
			case errors.As(err, &verr):
				_ = printJSON(cmd.OutOrStdout(), validateResult{Errors: verr.Fields})
				return errInvalidContent
			case err != nil:
				return err
			}

			res := validateResult{Valid: true, Content: &c}
			if tier != "" {
				t, err := domain.ParseTier(tier)
				if err != nil {
					return err
				}
				res.DisallowedSections = content.DisallowedSections(c, t)
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&tier, "tier", "", "also report sections the tier does not unlock")
	return cmd
}

func draftCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Read or save the caller's draft",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Show the caller's draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := g.client().GetDraft(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	})

	var tier, slug string
	var auto bool
	save := &cobra.Command{
		Use:   "save <content.json|->",
		Short: "Save content as the caller's draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			var c content.Content
			if err := json.Unmarshal(raw, &c); err != nil {
				return fmt.Errorf("decode content: %w", err)
			}
			res, err := g.client().SaveDraft(cmd.Context(), client.SaveDraftRequest{
				Content:    c,
				Tier:       tier,
				Slug:       slug,
				AutoSave:   auto,
				ManualSave: !auto,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	save.Flags().StringVar(&tier, "tier", string(domain.TierRising), "profile tier")
	save.Flags().StringVar(&slug, "slug", "", "slug to request; derived from the name when empty")
	save.Flags().BoolVar(&auto, "auto", false, "mark the save as an auto-save")
	cmd.AddCommand(save)
	return cmd
}

func publishCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "publish <slug>",
		Short: "Publish the caller's profile by slug",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := g.client().Publish(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if res.RequiresPayment {
				fmt.Fprintf(cmd.ErrOrStderr(), "payment required: run `%s pay create %s --tier %s`\n", programName, res.ProfileID, res.Tier)
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

func statusCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status <slug>",
		Short: "Show whether a slug is published",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := g.client().PublishStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), st)
		},
	}
}

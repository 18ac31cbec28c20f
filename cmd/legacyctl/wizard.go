package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/legacy-registry/profile-api/internal/content"
	platformclock "github.com/legacy-registry/profile-api/internal/platform/clock"
	"github.com/legacy-registry/profile-api/internal/wizard"
)

type writerNotifier struct{ w io.Writer }

func (n writerNotifier) Success(msg string) { fmt.Fprintln(n.w, msg) }
func (n writerNotifier) Error(msg string)   { fmt.Fprintln(n.w, "error: "+msg) }

type wizardResult struct {
	Step    string                 `json:"step"`
	Slug    string                 `json:"slug,omitempty"`
	Publish *wizard.PublishOutcome `json:"publish,omitempty"`
}

// wizardCommand walks the editor steps headlessly with content from a file, then saves or publishes.
func wizardCommand(g *globalFlags) *cobra.Command {
	var (
		tier     string
		file     string
		resume   bool
		publish  bool
		autosave time.Duration
	)
	cmd := &cobra.Command{
		Use:   "wizard",
		Short: "Run the profile wizard headlessly",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := g.logger()
			defer func() { _ = logger.Sync() }()

			api := g.client()
			c := wizard.NewController(api, platformclock.NewSystemClock(), wizard.Options{
				Notifier: writerNotifier{w: cmd.ErrOrStderr()},
				Logger:   logger,
			})

			if resume {
				d, err := api.GetDraft(ctx)
				if err != nil {
					return err
				}
				if d.HasDraft && d.Profile != nil {
					if err := c.Resume(*d.Profile); err != nil {
						return err
					}
				}
			}
			if file != "" {
				raw, err := readInput(cmd, file)
				if err != nil {
					return err
				}
				var ct content.Content
				if err := json.Unmarshal(raw, &ct); err != nil {
					return fmt.Errorf("decode content: %w", err)
				}
				c.Update(func(dst *content.Content) { *dst = ct })
			}
			if tier != "" {
				if err := c.SetTier(tier); err != nil {
					return err
				}
			}

			if autosave > 0 {
				as := wizard.NewAutoSaver(c, autosave)
				as.Start(ctx)
				defer as.Stop()
			}

			for c.Step() != wizard.StepPreview {
				if !c.Next() {
					return fmt.Errorf("step %s is incomplete", c.Step())
				}
			}

			res := wizardResult{Step: c.Step().String()}
			if publish {
				out, err := c.Publish(ctx)
				if err != nil {
					return err
				}
				res.Publish = &out
				res.Slug = out.Slug
			} else {
				saved, err := c.SaveDraft(ctx)
				if err != nil {
					return err
				}
				res.Slug = saved.Profile.Slug
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&tier, "tier", "", "tier to select")
	cmd.Flags().StringVarP(&file, "file", "f", "", "content JSON to fill the steps with, or - for stdin")
	cmd.Flags().BoolVar(&resume, "resume", false, "start from the saved draft")
	cmd.Flags().BoolVar(&publish, "publish", false, "publish from the preview step instead of saving")
	cmd.Flags().DurationVar(&autosave, "autosave", 0, "auto-save interval while the wizard runs; 0 disables")
	return cmd
}

package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AlhasanIQ/oriki/catalog"
)

const pingTimeout = 10 * time.Second

type questionJSON struct {
	ID            string           `json:"id"`
	Field         string           `json:"field"`
	Kind          catalog.Kind     `json:"kind"`
	Text          string           `json:"text"`
	MaxSelections int              `json:"max_selections,omitempty"`
	MinLength     int              `json:"min_length,omitempty"`
	MaxLength     int              `json:"max_length,omitempty"`
	Options       []catalog.Option `json:"options,omitempty"`
}

func newCatalogCmd(a *app) *cobra.Command {
	var asJSON, asYAML bool
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the quiz questions and their options",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.provider()
			if err != nil {
				return err
			}
			defer p.Close()
			cat, err := a.loadCatalog(cmd.Context(), p)
			if err != nil {
				return err
			}

			switch {
			case asYAML:
				b, err := catalog.Marshal(cat)
				if err != nil {
					return err
				}
				_, err = a.io.Out.Write(b)
				return err
			case asJSON:
				qs := make([]questionJSON, 0, cat.Len())
				for _, q := range cat.Questions() {
					qs = append(qs, questionJSON{
						ID:            q.ID,
						Field:         q.PayloadField(),
						Kind:          q.Kind,
						Text:          q.Text,
						MaxSelections: q.Constraints.MaxSelections,
						MinLength:     q.Constraints.MinLength,
						MaxLength:     q.Constraints.MaxLength,
						Options:       q.Options,
					})
				}
				return writeJSON(a.io.Out, map[string]any{"version": cat.Version(), "questions": qs})
			}

			s := newSty(a.io.Out)
			for i, q := range cat.Questions() {
				s.section(fmt.Sprintf("%d. %s", i+1, q.ID))
				s.info(q.Text)
				switch q.Kind {
				case catalog.KindFreeText:
					s.info(s.dim(fmt.Sprintf("free text, %d-%d characters", q.Constraints.MinLength, q.Constraints.MaxLength)))
				case catalog.KindMultiSelect:
					s.info(s.dim(fmt.Sprintf("choose up to %d", q.Constraints.MaxSelections)))
				}
				for j, o := range q.Options {
					s.choice(j+1, o.Label, "("+o.Value+")")
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print as a catalog file usable with catalog.source=file")
	return cmd
}

func newPingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the service is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.ping(cmd.Context())
		},
	}
}

func (a *app) ping(parent context.Context) error {
	p, err := a.provider()
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, cancel := context.WithTimeout(parent, pingTimeout)
	defer cancel()

	s := newSty(a.io.ErrOut)
	start := time.Now()
	resp, err := p.Health(ctx)
	if err != nil {
		s.errMsg("Service unreachable")
		return err
	}
	status := strings.TrimSpace(resp.Status)
	if status == "" {
		status = "ok"
	}
	s.success(fmt.Sprintf("%s is %s (%s)", p.Name(), status, time.Since(start).Round(time.Millisecond)))
	return nil
}

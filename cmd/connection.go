/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"photobot/delivery"
	"photobot/whatsapp"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
)

func testConnection(cliCtx *cli.Context, s *settings) error {
	ctx, stop := signal.NotifyContext(cliCtx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	wa, err := whatsappClient(s, httpClient(s.Config))
	if err != nil {
		return err
	}

	profile, err := delivery.CheckConnection(ctx, wa, s.Receiver)
	if err != nil {
		return err
	}

	renderProfile(cliCtx.App.Writer, profile)
	return nil
}

// renderProfile prints the non-empty profile fields as a table
func renderProfile(w io.Writer, profile *whatsapp.BusinessProfile) {
	rows := [][2]string{
		{"About", profile.About},
		{"Description", profile.Description},
		{"Address", profile.Address},
		{"Email", profile.Email},
		{"Websites", strings.Join(profile.Websites, ", ")},
		{"Vertical", profile.Vertical},
		{"Profile picture", profile.ProfilePictureURL},
	}
	rows = lo.Filter(rows, func(row [2]string, _ int) bool {
		return strings.TrimSpace(row[1]) != ""
	})

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("WhatsApp business profile")
	tw.AppendHeader(table.Row{"Field", "Value"})
	for _, row := range rows {
		tw.AppendRow(table.Row{row[0], row[1]})
	}
	tw.Render()
}

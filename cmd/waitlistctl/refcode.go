package main

import (
	"fmt"

	"github.com/localplate/waitlist/internal/referral"
	"github.com/localplate/waitlist/internal/share"
	"github.com/localplate/waitlist/internal/utils"
	"github.com/spf13/cobra"
)

func newRefcodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refcode <email>...",
		Short: "Print the referral code each email would receive",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, email := range args {
				if !utils.ValidateEmail(email) {
					return fmt.Errorf("invalid email %q", email)
				}
				fmt.Fprintf(out, "%s\t%s\n", utils.NormalizeEmail(email), referral.Generate(utils.NormalizeEmail(email)))
			}
			return nil
		},
	}
}

func newShareCmd() *cobra.Command {
	var base string

	cmd := &cobra.Command{
		Use:   "share <code>",
		Short: "Print the share links for a referral code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := referral.Normalize(args[0])
			if !referral.Valid(code) {
				return fmt.Errorf("invalid referral code %q", args[0])
			}

			out := cmd.OutOrStdout()
			link := share.ReferralLink(base, code)
			fmt.Fprintf(out, "link\t%s\n", link)
			for _, network := range share.Networks {
				fmt.Fprintf(out, "%s\t%s\n", network, share.URL(network, link))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&base, "base", "https://localplate.com", "Public site URL")
	return cmd
}

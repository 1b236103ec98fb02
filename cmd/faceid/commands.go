package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/faceid/internal/domain"
)

func newEnrollCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enroll --user ID IMAGE...",
		Short: "Average up to five face images into the identity's reference",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			images, err := readImages(cmd.Context(), args, cmd.ErrOrStderr(), c.cfg.MaxImageSize)
			if err != nil {
				return err
			}

			enrollment, err := c.pipeline.Service.Enroll(cmd.Context(), c.userID, images)
			if err != nil {
				return err
			}
			return printJSON(cmd, enrollment)
		},
	}
	c.addUserFlag(cmd)
	return cmd
}

func newVerifyCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify --user ID IMAGE",
		Short: "Score every face in IMAGE against the identity's reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			probe, err := readImage(args[0], c.cfg.MaxImageSize)
			if err != nil {
				return err
			}

			verification, err := c.pipeline.Service.Verify(cmd.Context(), c.userID, probe)
			if err != nil {
				return err
			}

			cmd.PrintErrln(verification.Message())
			return printJSON(cmd, verification)
		},
	}
	c.addUserFlag(cmd)
	return cmd
}

func newMaskCmd(c *cli) *cobra.Command {
	var maskType string

	cmd := &cobra.Command{
		Use:   "mask --user ID [--type black|blur|OVERLAY] IMAGE",
		Short: "Redact the first face in IMAGE that matches the identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := readImage(args[0], c.cfg.MaxImageSize)
			if err != nil {
				return err
			}

			artifact, err := c.pipeline.Service.Mask(cmd.Context(), c.userID, img, maskType)
			if err != nil {
				return err
			}
			return printJSON(cmd, struct {
				*domain.RenderedArtifact
				Path string `json:"path"`
			}{artifact, filepath.Join(c.pipeline.Media.Dir(), artifact.Filename)})
		},
	}
	c.addUserFlag(cmd)
	cmd.Flags().StringVarP(&maskType, "type", "t", domain.DefaultMaskType, "Mask type: black, blur or an overlay name")
	return cmd
}

func newDeleteCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete --user ID",
		Short: "Erase the identity's stored reference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.pipeline.Service.Delete(cmd.Context(), c.userID); err != nil {
				return err
			}
			cmd.Printf("deleted %s\n", c.userID)
			return nil
		},
	}
	c.addUserFlag(cmd)
	return cmd
}

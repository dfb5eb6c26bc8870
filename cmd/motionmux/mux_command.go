package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"motionmux/internal/motionphoto"
)

func newMuxCommand(ctx *commandContext) *cobra.Command {
	var photo, video, output string
	cmd := &cobra.Command{
		Use:   "mux",
		Short: "Mux one JPEG and one MOV/MP4 into a Motion Photo",
		Long: `Write <output>/<photo name>: the photo with Motion Photo XMP followed by
the clip. The photo must be a .jpg/.jpeg and the clip a .mov/.mp4.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if photo == "" || video == "" {
				return errors.New("both --photo and --video are required")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			muxer := motionphoto.NewMuxer(logger, motionphoto.Options{
				MetadataWriter:          cfg.Mux.MetadataWriter,
				ExiftoolBinary:          cfg.Mux.ExiftoolBinary,
				PresentationTimestampUs: cfg.Mux.PresentationTimestampUs,
			})
			target, err := muxer.Mux(cmd.Context(), photo, video, output)
			if err != nil {
				return err
			}
			info, err := motionphoto.Inspect(target)
			if err != nil {
				return fmt.Errorf("verify %s: %w", target, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (video at byte %d, %d bytes)\n", target, info.VideoStart(), info.Metadata.Offset)
			return nil
		},
	}
	cmd.Flags().StringVarP(&photo, "photo", "p", "", "JPEG photo")
	cmd.Flags().StringVar(&video, "video", "", "MOV or MP4 clip")
	cmd.Flags().StringVarP(&output, "output", "o", "output", "Output directory")
	return cmd
}

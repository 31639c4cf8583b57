package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/savcinema/voicereview-service/internal/capture"
	"github.com/savcinema/voicereview-service/internal/client"
)

// defaultInputFormat selects the microphone backend passed to the encoder.
const defaultInputFormat = "pulse"

func newRecordCommand(ctx *commandContext) *cobra.Command {
	var displayName string
	var encoder string

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record and submit a voice review for the active movie",
		Long: "Records from the default microphone until Enter is pressed or the " +
			"90-second ceiling is reached, then previews and submits the recording.",
		RunE: func(cmd *cobra.Command, args []string) error {
			uploader := client.NewUploader(ctx.apiClient())

			movie, err := uploader.ActiveMovie(cmd.Context())
			if err != nil {
				return err
			}
			if movie == nil {
				return fmt.Errorf("no movie is currently open for review")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recording a review for %s\n", movie.Title)

			device := newEncoderDevice(encoder)
			session := capture.NewSession(device, uploader, movie.ID)
			defer session.Close()

			if err := session.Start(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Recording... press Enter to stop")

			waitForStop(cmd, session)

			if err := session.Stop(); err != nil {
				return err
			}
			if len(session.Artifact()) == 0 {
				return fmt.Errorf("nothing was recorded")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %ds, preview at %s\n",
				session.ElapsedSeconds(), session.PreviewPath())

			stdin := bufio.NewReader(cmd.InOrStdin())
			for {
				name := displayName
				if name == "" {
					fmt.Fprint(cmd.OutOrStdout(), "Display name [Anonymous]: ")
					line, _ := stdin.ReadString('\n')
					name = strings.TrimSpace(line)
					if name == "" {
						name = "Anonymous"
					}
				}

				reviewID, err := session.Submit(cmd.Context(), name)
				if err == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Review submitted: %s\n", reviewID)
					return nil
				}

				// The artifact survives a failed submit, so offer a retry.
				var rejected *client.ServerRejectedError
				switch {
				case errors.As(err, &rejected):
					fmt.Fprintf(cmd.ErrOrStderr(), "Submission rejected: %s\n", rejected.Body)
				case errors.Is(err, client.ErrTimedOut):
					fmt.Fprintln(cmd.ErrOrStderr(), "Submission timed out")
				default:
					fmt.Fprintf(cmd.ErrOrStderr(), "Submission failed: %v\n", err)
				}

				fmt.Fprint(cmd.OutOrStdout(), "Retry with the same recording? [y/N]: ")
				answer, _ := stdin.ReadString('\n')
				if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y") {
					return err
				}
			}
		},
	}

	cmd.Flags().StringVar(&displayName, "name", "", "Reviewer pseudonym (prompted when omitted)")
	cmd.Flags().StringVar(&encoder, "encoder", "ffmpeg", "Audio encoder binary")

	return cmd
}

// waitForStop returns when the user presses Enter or the session leaves the
// recording state, whichever happens first.
func waitForStop(cmd *cobra.Command, session *capture.Session) {
	enter := make(chan struct{})
	go func() {
		bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		close(enter)
	}()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-enter:
			return
		case <-ticker.C:
			if session.State() != capture.StateRecording {
				return
			}
		}
	}
}

// newEncoderDevice builds a microphone capture device around the given
// encoder binary, streaming opus-in-webm to stdout.
func newEncoderDevice(encoder string) *capture.CommandDevice {
	return capture.NewCommandDevice("audio/webm", encoder,
		"-hide_banner", "-loglevel", "error",
		"-f", defaultInputFormat, "-i", "default",
		"-c:a", "libopus", "-b:a", "32k",
		"-f", "webm", "-")
}

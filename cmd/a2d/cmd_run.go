package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/GAL1LAO/A2D-Project/internal/container"
	"github.com/GAL1LAO/A2D-Project/internal/export"
)

var runFlags struct {
	out     string
	publish bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process every configured source once and write the workbook",
	Long: `Processes all sources of the sources file in order and writes one sheet
per source. Sources that fail or run out of attempts get an empty sheet.
With --publish the workbook is also uploaded to PUBLISH_URL and, when
configured, archived to Azure blob storage.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runFlags.out, "out", "o", export.WorkbookFileName, "Output workbook path")
	runCmd.Flags().BoolVar(&runFlags.publish, "publish", false, "Upload the workbook after writing it")
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	c, err := container.NewContainer(cfg, log)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	artifact := c.Batch().Run(ctx, c.Sources())
	workbook, err := c.Exporter().Bytes(artifact)
	if err != nil {
		return err
	}
	if err := export.WriteFile(runFlags.out, workbook); err != nil {
		return err
	}

	if runFlags.publish {
		pub := c.Publisher()
		if pub == nil {
			return fmt.Errorf("--publish needs PUBLISH_URL")
		}
		if err := pub.Publish(ctx, artifact, workbook); err != nil {
			return err
		}
		if arch := c.Archiver(); arch != nil {
			if err := arch.Publish(ctx, artifact, workbook); err != nil {
				log.WithError(err).Warn("Archiving workbook failed")
			}
		}
	}

	summary := artifact.Summary()
	log.WithFields(logrus.Fields{
		"run_id":   summary.RunID,
		"accepted": summary.Accepted,
		"sources":  len(summary.Sources),
		"out":      runFlags.out,
	}).Info("Run finished")
	for _, s := range summary.Sources {
		fmt.Fprintf(cmd.OutOrStdout(), "%-20s %-10s rows=%d attempts=%d\n", s.Name, s.Status, s.Rows, s.Attempts)
	}
	return nil
}

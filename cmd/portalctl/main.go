package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	appconfig "github.com/medvault/patient-portal/internal/config"
	"github.com/medvault/patient-portal/internal/portal"
	"github.com/medvault/patient-portal/internal/portalapi"
	"github.com/medvault/patient-portal/pkg/logging"
)

func main() {
	if err := newRootCmd(time.Now).Execute(); err != nil {
		os.Exit(1)
	}
}

// cli is the state shared by every portalctl command.
type cli struct {
	now func() time.Time

	envFile   string
	baseURL   string
	token     string
	patientID int64
	jsonOut   bool

	cfg    *appconfig.Config
	client *portalapi.Client
	logger *logging.Logger
}

func newRootCmd(now func() time.Time) *cobra.Command {
	c := &cli{now: now}

	rootCmd := &cobra.Command{
		Use:           "portalctl",
		Short:         "Drive the MedVault appointment engine from the terminal",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&c.envFile, "env-file", ".env", "dotenv file to load before reading configuration")
	flags.StringVar(&c.baseURL, "base-url", "", "MedVault API base URL (default PORTAL_API_BASE_URL)")
	flags.StringVar(&c.token, "token", "", "patient bearer token (default PORTAL_TOKEN)")
	flags.Int64Var(&c.patientID, "patient-id", 0, "patient id (default PORTAL_PATIENT_ID)")
	flags.BoolVar(&c.jsonOut, "json", false, "print JSON instead of tables")

	rootCmd.AddCommand(doctorsCmd(c))
	rootCmd.AddCommand(slotsCmd(c))
	rootCmd.AddCommand(bookCmd(c))
	rootCmd.AddCommand(appointmentsCmd(c))
	rootCmd.AddCommand(rescheduleCmd(c))
	rootCmd.AddCommand(emergencyCmd(c))

	return rootCmd
}

func (c *cli) setup(cmd *cobra.Command) error {
	if c.envFile != "" {
		if err := godotenv.Load(c.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("portalctl: load %s: %w", c.envFile, err)
		}
	}

	c.cfg = appconfig.Load()
	c.logger = logging.NewWithWriter(c.cfg.LogLevel, cmd.ErrOrStderr())

	if c.baseURL == "" {
		c.baseURL = c.cfg.PortalAPIBaseURL
	}
	if c.token == "" {
		c.token = strings.TrimSpace(os.Getenv("PORTAL_TOKEN"))
	}
	if c.patientID == 0 {
		if raw := strings.TrimSpace(os.Getenv("PORTAL_PATIENT_ID")); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return fmt.Errorf("portalctl: invalid PORTAL_PATIENT_ID %q", raw)
			}
			c.patientID = id
		}
	}

	c.client = portalapi.NewClient(c.baseURL, c.logger, portalapi.WithTimeout(c.cfg.PortalAPITimeout))
	return nil
}

func (c *cli) session() (portal.Session, error) {
	sess := portal.Session{PatientID: c.patientID, Token: c.token}
	if !sess.Valid() || sess.Token == "" {
		return portal.Session{}, errors.New("portalctl: --token and --patient-id (or PORTAL_TOKEN and PORTAL_PATIENT_ID) are required")
	}
	return sess, nil
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/medvault/patient-portal/internal/appointments"
	"github.com/medvault/patient-portal/internal/booking"
	"github.com/medvault/patient-portal/internal/emergency"
	"github.com/medvault/patient-portal/internal/pagination"
	"github.com/medvault/patient-portal/internal/portal"
	"github.com/medvault/patient-portal/internal/reschedule"
	"github.com/medvault/patient-portal/internal/slots"
)

func doctorsCmd(c *cli) *cobra.Command {
	var specialization, search string
	var page int
	cmd := &cobra.Command{
		Use:   "doctors",
		Short: "List approved doctors",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := c.session()
			if err != nil {
				return err
			}
			all, err := c.client.ListDoctors(cmd.Context(), sess)
			if err != nil {
				return err
			}
			p := pagination.Paginate(slots.FilterDoctors(all, specialization, search), c.cfg.DoctorsPerPage, page)
			if c.jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"page":            p,
					"pages":           pagination.PageNumbers(p.CurrentPage, p.TotalPages),
					"specializations": slots.Specializations(all),
				})
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME\tSPECIALIZATION\tEXPERIENCE")
			for _, d := range p.Items {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d yrs\n", d.ID, d.DisplayName(), d.Specialization, d.YearsOfExperience)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			printFooter(cmd.OutOrStdout(), p.StartIndex, p.EndIndex, p.TotalItems, p.CurrentPage, p.TotalPages)
			return nil
		},
	}
	cmd.Flags().StringVar(&specialization, "specialization", slots.AllSpecializations, "specialization filter")
	cmd.Flags().StringVar(&search, "search", "", "name or specialization search")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

func slotsCmd(c *cli) *cobra.Command {
	var doctorID int64
	var date string
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Show a doctor's slots grouped by date",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := c.session()
			if err != nil {
				return err
			}
			list, err := c.client.ListAvailableSlots(cmd.Context(), sess, doctorID)
			if err != nil {
				return err
			}
			grouping := slots.GroupByDate(list, c.cfg.Location())
			groups := grouping.Filter(date)
			if c.jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"dates":    grouping.Keys(),
					"groups":   groups,
					"excluded": len(grouping.Excluded),
				})
			}
			printGroups(cmd.OutOrStdout(), groups, c)
			if n := len(grouping.Excluded); n > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%d slot(s) skipped: unreadable start time\n", n)
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&doctorID, "doctor", 0, "doctor id")
	cmd.Flags().StringVar(&date, "date", slots.AllDates, "date key filter")
	_ = cmd.MarkFlagRequired("doctor")
	return cmd
}

func bookCmd(c *cli) *cobra.Command {
	var doctorID, slotID int64
	var notes string
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book a slot through the booking wizard",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := c.session()
			if err != nil {
				return err
			}
			doctors, err := c.client.ListDoctors(cmd.Context(), sess)
			if err != nil {
				return err
			}
			var doctor *portal.Doctor
			for i := range doctors {
				if doctors[i].ID == doctorID {
					doctor = &doctors[i]
					break
				}
			}
			if doctor == nil {
				return fmt.Errorf("portalctl: doctor %d is not an approved doctor", doctorID)
			}

			w := booking.NewWizard(c.client, c.client, sess, c.logger, nil)
			if err := w.SelectDoctor(cmd.Context(), *doctor); err != nil {
				return err
			}
			if err := w.SelectSlot(slotID); err != nil {
				return err
			}
			if err := w.SetNotes(notes); err != nil {
				return err
			}
			appt, err := w.Submit(cmd.Context())
			if err != nil {
				return err
			}
			if c.jsonOut {
				return printJSON(cmd.OutOrStdout(), w.Snapshot())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Appointment #%d booked with %s (%s)\n", appt.ID, doctor.DisplayName(), appt.Status)
			if emergency.IsEmergency(notes) {
				fmt.Fprintln(cmd.OutOrStdout(), "Notes flagged as an emergency; the doctor will see them first.")
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&doctorID, "doctor", 0, "doctor id")
	cmd.Flags().Int64Var(&slotID, "slot", 0, "slot id")
	cmd.Flags().StringVar(&notes, "notes", "", "notes for the doctor")
	_ = cmd.MarkFlagRequired("doctor")
	_ = cmd.MarkFlagRequired("slot")
	return cmd
}

func appointmentsCmd(c *cli) *cobra.Command {
	var status string
	var page int
	cmd := &cobra.Command{
		Use:   "appointments",
		Short: "List regular appointments with reschedule eligibility",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := c.session()
			if err != nil {
				return err
			}
			ledger := appointments.NewLedger(c.client, sess, c.logger)
			if err := ledger.Refresh(cmd.Context()); err != nil {
				return err
			}
			view := appointments.BuildRegular(ledger.All(), status, page, c.cfg.AppointmentsPerPage, c.now())
			if c.jsonOut {
				return printJSON(cmd.OutOrStdout(), view)
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tDOCTOR\tSTART\tSTATUS\tRESCHEDULE")
			for _, item := range view.Page.Items {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", item.ID, item.DoctorDisplayName, item.AppointmentStartTime, item.Status, eligibility(item))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			p := view.Page
			printFooter(cmd.OutOrStdout(), p.StartIndex, p.EndIndex, p.TotalItems, p.CurrentPage, p.TotalPages)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", appointments.StatusAll, "ALL, PENDING, APPROVED, REJECTED or COMPLETED")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

func rescheduleCmd(c *cli) *cobra.Command {
	var appointmentID, slotID int64
	var reason string
	cmd := &cobra.Command{
		Use:   "reschedule",
		Short: "Reschedule an appointment, or list its options when --slot is omitted",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := c.session()
			if err != nil {
				return err
			}
			ledger := appointments.NewLedger(c.client, sess, c.logger)
			if err := ledger.Refresh(cmd.Context()); err != nil {
				return err
			}
			svc := reschedule.NewService(c.client, c.cfg.Location(), c.logger, reschedule.WithClock(c.now))

			if slotID == 0 {
				appt, ok := ledger.Get(appointmentID)
				if !ok {
					return reschedule.ErrUnknownAppointment
				}
				options, err := svc.Options(cmd.Context(), sess, appt)
				if err != nil {
					return err
				}
				groups := slots.GroupByDate(options, c.cfg.Location()).Groups
				if c.jsonOut {
					return printJSON(cmd.OutOrStdout(), groups)
				}
				if len(groups) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No available slots for rescheduling.")
					return nil
				}
				printGroups(cmd.OutOrStdout(), groups, c)
				return nil
			}

			outcome, err := svc.Reschedule(cmd.Context(), ledger, appointmentID, slotID, reason)
			var reconcileErr *reschedule.ReconcileError
			if errors.As(err, &reconcileErr) {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", reconcileErr)
			} else if err != nil {
				return err
			}
			if c.jsonOut {
				return printJSON(cmd.OutOrStdout(), outcome)
			}
			fmt.Fprintln(cmd.OutOrStdout(), outcome.Message())
			return nil
		},
	}
	cmd.Flags().Int64Var(&appointmentID, "appointment", 0, "appointment id")
	cmd.Flags().Int64Var(&slotID, "slot", 0, "new slot id")
	cmd.Flags().StringVar(&reason, "reason", "", "reason for rescheduling")
	_ = cmd.MarkFlagRequired("appointment")
	return cmd
}

func emergencyCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "emergency",
		Short: "Emergency requests",
	}

	var status string
	var page int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List emergency reports and emergency-flagged appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := c.session()
			if err != nil {
				return err
			}
			ledger := appointments.NewLedger(c.client, sess, c.logger)
			overview, err := appointments.LoadOverview(cmd.Context(), ledger, c.client)
			if err != nil {
				return err
			}
			view := appointments.BuildEmergency(overview.Requests, overview.Appointments, status, page, c.cfg.EmergencyPerPage)
			if c.jsonOut {
				return printJSON(cmd.OutOrStdout(), view)
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tSOURCE\tSTATUS\tDOCTOR\tSYMPTOMS")
			for _, e := range view.Page.Items {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.Request.ID, e.Source, e.Request.Status, e.Request.DoctorName, e.Request.Symptoms)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			p := view.Page
			printFooter(cmd.OutOrStdout(), p.StartIndex, p.EndIndex, p.TotalItems, p.CurrentPage, p.TotalPages)
			return nil
		},
	}
	listCmd.Flags().StringVar(&status, "status", emergency.StatusAll, "status filter")
	listCmd.Flags().IntVar(&page, "page", 1, "page number")

	var sub portal.EmergencySubmission
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "File a standalone emergency report",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := c.session()
			if err != nil {
				return err
			}
			req, err := emergency.NewReporter(c.client, sess, c.logger).Report(cmd.Context(), sub)
			if err != nil {
				return err
			}
			if c.jsonOut {
				return printJSON(cmd.OutOrStdout(), req)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Emergency request #%d filed (%s)\n", req.ID, req.Status)
			return nil
		},
	}
	reportCmd.Flags().StringVar(&sub.UrgencyLevel, "urgency", "", "urgency level")
	reportCmd.Flags().StringVar(&sub.Symptoms, "symptoms", "", "symptoms")
	reportCmd.Flags().StringVar(&sub.PatientNotes, "notes", "", "additional notes")
	reportCmd.Flags().StringVar(&sub.ContactNumber, "contact", "", "contact number")

	cmd.AddCommand(listCmd, reportCmd)
	return cmd
}

func eligibility(item appointments.Item) string {
	if item.Reschedule.Eligible {
		return "eligible"
	}
	if item.RescheduleMessage != "" {
		return item.RescheduleMessage
	}
	return string(item.Reschedule.Reason)
}

func printGroups(w io.Writer, groups []slots.DateGroup, c *cli) {
	loc := c.cfg.Location()
	for _, g := range groups {
		fmt.Fprintln(w, g.Key)
		tw := newTable(w)
		for _, s := range g.Slots {
			fmt.Fprintf(tw, "  #%d\t%s\t%s\n", s.ID, slotWindow(s, loc), s.Availability())
		}
		_ = tw.Flush()
	}
}

func slotWindow(s portal.Slot, loc *time.Location) string {
	start, err := s.Start(loc)
	if err != nil {
		return s.StartTime
	}
	end, err := s.End(loc)
	if err != nil {
		return start.Format("15:04")
	}
	return start.Format("15:04") + "-" + end.Format("15:04")
}

func printFooter(w io.Writer, start, end, total, current, pages int) {
	if total == 0 {
		fmt.Fprintln(w, "No results.")
		return
	}
	fmt.Fprintf(w, "Showing %d-%d of %d (page %d of %d)\n", start, end, total, current, pages)
	markers := pagination.PageNumbers(current, pages)
	if len(markers) == 0 {
		return
	}
	parts := make([]string, len(markers))
	for i, m := range markers {
		parts[i] = m.String()
	}
	fmt.Fprintf(w, "Pages: %s\n", strings.Join(parts, " "))
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

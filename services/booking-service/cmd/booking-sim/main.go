// Command booking-sim walks the customer booking flow against a running booking-service:
// pick a service and staff member, find a free slot, submit, and optionally cancel.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/md-rashed-zaman/apptbook/libs/config"
	"github.com/md-rashed-zaman/apptbook/libs/grpcx"
	"github.com/md-rashed-zaman/apptbook/libs/runtime"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/client"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/wizard"
)

type options struct {
	baseURL  string
	grpcAddr string
	timezone string
	service  string
	staff    string
	date     string
	clock    string
	name     string
	email    string
	phone    string
	notes    string
	days     int
	cancel   bool
	timeout  time.Duration
}

func main() {
	var o options
	flag.StringVar(&o.baseURL, "base-url", config.String("BASE_URL", "http://localhost:8083"), "booking-service base url")
	flag.StringVar(&o.grpcAddr, "grpc-addr", config.String("BOOKING_GRPC_ADDR", ""), "check gRPC health at this address first")
	flag.StringVar(&o.timezone, "timezone", config.String("BUSINESS_TIMEZONE", "America/Los_Angeles"), "business time zone")
	flag.StringVar(&o.service, "service", "", "service id or name (default: first listed)")
	flag.StringVar(&o.staff, "staff", "", "staff id or name (default: first offering the service)")
	flag.StringVar(&o.date, "date", "", "YYYY-MM-DD (default: first day with a free slot)")
	flag.StringVar(&o.clock, "time", "", "HH:MM (default: first free slot of the date)")
	flag.StringVar(&o.name, "name", "Sim Customer", "customer name")
	flag.StringVar(&o.email, "email", "sim@example.com", "customer email")
	flag.StringVar(&o.phone, "phone", "555-0100", "customer phone")
	flag.StringVar(&o.notes, "notes", "", "appointment notes")
	flag.IntVar(&o.days, "days", 14, "days ahead to search for a free slot")
	flag.BoolVar(&o.cancel, "cancel", false, "cancel the appointment after booking it")
	flag.DurationVar(&o.timeout, "timeout", 30*time.Second, "overall timeout")
	flag.Parse()

	logger := runtime.NewLogger("booking-sim", config.String("LOG_LEVEL", "warn"))
	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()

	if err := run(ctx, o, logger); err != nil {
		fmt.Fprintln(os.Stderr, "booking-sim:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o options, logger *slog.Logger) error {
	if o.grpcAddr != "" {
		conn, err := grpcx.Dial(o.grpcAddr, grpcx.DialOptions{})
		if err != nil {
			return fmt.Errorf("dial %s: %w", o.grpcAddr, err)
		}
		defer conn.Close()
		if err := grpcx.HealthCheck(ctx, conn, "booking-service", 3*time.Second); err != nil {
			return fmt.Errorf("health check: %w", err)
		}
		fmt.Println("grpc health: SERVING")
	}

	zone, err := availability.LoadZone(o.timezone)
	if err != nil {
		return err
	}
	api, err := client.New(client.Config{BaseURL: o.baseURL, UserAgent: "booking-sim"})
	if err != nil {
		return err
	}
	sess := wizard.NewSession(wizard.NewMachine(zone), api, api, logger)

	svc, err := pickService(sess.Services(ctx), o.service)
	if err != nil {
		return err
	}
	if err := sess.SelectService(svc); err != nil {
		return err
	}
	staff, err := pickStaff(sess.Staff(ctx), o.staff)
	if err != nil {
		return err
	}
	if err := sess.SelectStaff(ctx, staff.ID); err != nil {
		return err
	}
	if st := sess.State(); st.Notice != "" {
		return errors.New(st.Notice)
	}

	date, clock, err := pickSlot(ctx, api, o, zone, staff.ID, svc.ID)
	if err != nil {
		return err
	}
	fmt.Printf("booking %s with %s on %s at %s (%s)\n", svc.Name, staff.Name, date, clock, zone)

	if err := sess.SelectDate(date); err != nil {
		return err
	}
	if err := sess.SelectTime(clock); err != nil {
		return err
	}
	if err := sess.EnterContact(wizard.Contact{Name: o.name, Email: o.email, Phone: o.phone}, o.notes); err != nil {
		return err
	}
	if err := sess.Proceed(); err != nil {
		return err
	}
	if st := sess.State(); st.Stage != wizard.Confirming {
		return fmt.Errorf("cannot confirm: %s", st.Notice)
	}

	appt, err := sess.Submit(ctx)
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	if err := printJSON(appt); err != nil {
		return err
	}

	if o.cancel {
		cancelled, err := api.CancelAppointment(ctx, appt.ID, "cancelled by booking-sim")
		if err != nil {
			return fmt.Errorf("cancel: %w", err)
		}
		fmt.Printf("cancelled %s: status=%s\n", cancelled.ID, cancelled.Status)
	}
	return nil
}

func pickService(services []model.Service, want string) (model.Service, error) {
	if len(services) == 0 {
		return model.Service{}, errors.New("no services available")
	}
	if want == "" {
		return services[0], nil
	}
	for _, s := range services {
		if s.ID == want || strings.EqualFold(s.Name, want) {
			return s, nil
		}
	}
	return model.Service{}, fmt.Errorf("service %q not found", want)
}

func pickStaff(staff []model.Staff, want string) (model.Staff, error) {
	if len(staff) == 0 {
		return model.Staff{}, errors.New("no staff offer this service")
	}
	if want == "" {
		return staff[0], nil
	}
	for _, s := range staff {
		if s.ID == want || strings.EqualFold(s.Name, want) {
			return s, nil
		}
	}
	return model.Staff{}, fmt.Errorf("staff member %q does not offer this service", want)
}

// pickSlot uses the server's slot search, which already excludes booked and past slots,
// for whatever the flags leave open.
func pickSlot(ctx context.Context, api *client.Client, o options, zone availability.Zone, staffID, serviceID string) (model.Date, model.WallClock, error) {
	var dates []model.Date
	if o.date != "" {
		d, err := model.ParseDate(o.date)
		if err != nil {
			return model.Date{}, 0, err
		}
		dates = []model.Date{d}
	} else {
		today := zone.Today(time.Now())
		for i := 0; i < o.days; i++ {
			dates = append(dates, today.AddDays(i))
		}
	}

	var want *model.WallClock
	if o.clock != "" {
		clock, err := model.ParseWallClock(o.clock)
		if err != nil {
			return model.Date{}, 0, err
		}
		if o.date != "" {
			return dates[0], clock, nil
		}
		want = &clock
	}

	for _, d := range dates {
		resp, err := api.Slots(ctx, staffID, serviceID, d)
		if err != nil {
			return model.Date{}, 0, fmt.Errorf("slots for %s: %w", d, err)
		}
		for _, s := range resp.Slots {
			if want == nil || s.StartTime == *want {
				return d, s.StartTime, nil
			}
		}
	}
	return model.Date{}, 0, fmt.Errorf("no free slot in the next %d days", len(dates))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

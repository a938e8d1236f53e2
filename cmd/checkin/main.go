// Command checkin marks attendance from a kiosk or script through the
// Registrar gRPC service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"google.golang.org/grpc/status"

	"rollwise/attendance/internal/clients"
	"rollwise/attendance/internal/config"
)

func main() {
	cfg := config.Load()

	addr := flag.String("addr", "127.0.0.1"+cfg.GRPCAddr, "registrar grpc address")
	eventID := flag.String("event", "", "event id")
	name := flag.String("name", "", "attendee full name")
	email := flag.String("email", "", "attendee email")
	flag.Parse()

	if *eventID == "" || *name == "" || *email == "" {
		fmt.Fprintln(os.Stderr, "usage: checkin -event <id> -name <full name> -email <email>")
		os.Exit(2)
	}

	if err := run(cfg, *addr, *eventID, *name, *email); err != nil {
		if st, ok := status.FromError(err); ok {
			fmt.Fprintf(os.Stderr, "check-in refused (%s): %s\n", st.Code(), st.Message())
		} else {
			fmt.Fprintf(os.Stderr, "check-in failed: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(cfg config.Config, addr, eventID, name, email string) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.GRPCDialTimeout+5*time.Second)
	defer cancel()

	c, err := clients.New(ctx, addr, cfg.ServiceAuthToken, cfg.GRPCDialTimeout)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer c.Close()

	mark, err := c.MarkAttendance(ctx, eventID, name, email)
	if err != nil {
		return err
	}
	fmt.Printf("%s <%s> is %s (recorded %s)\n", mark.Name, mark.Email, mark.State(), humanize.Time(mark.UpdatedAt))
	return nil
}

// Command sample wires the identity stores against a live entity store and
// walks through the contract once: it creates a role and a user, batches
// several capability setters, persists with a single update, and reads the
// user back through each lookup path.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/crypto/bcrypt"
	"google.golang.org/api/iterator"

	"github.com/identitykit/datastore-identity/dskind"
	"github.com/identitykit/datastore-identity/identity"
	"github.com/identitykit/datastore-identity/internal/logging"
)

func main() {
	configFile := flag.String("c", "", "path to a JSON config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := logging.NewDefault(os.Stdout)

	opts, err := dskind.LoadOptions(*configFile)
	if err != nil {
		log.Fatalf("%v", err)
	}

	db, err := dskind.Open(ctx, opts, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer db.Close()

	if err := run(ctx, identity.NewDBContext(db, opts), logger); err != nil {
		logger.Error(ctx, "sample failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, dbc *identity.DBContext, logger logging.Logger) error {
	roles := identity.NewRoleStore(dbc)
	users := identity.NewUserStore(dbc)

	role := identity.NewRole("Admin")
	role.NormalizedName = "ADMIN"
	if err := roles.Create(ctx, role); err != nil {
		return err
	}
	logger.Info(ctx, "role created", "id", roles.RoleID(role))

	user := identity.NewUser("alice")
	if err := users.Create(ctx, user); err != nil {
		return err
	}
	logger.Info(ctx, "user created", "id", users.UserID(user))

	// Batch in-memory capability setters, then persist once.
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret!"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := users.SetNormalizedUserName(ctx, user, "ALICE"); err != nil {
		return err
	}
	if err := users.SetEmail(ctx, user, "alice@example.com"); err != nil {
		return err
	}
	if err := users.SetNormalizedEmail(ctx, user, "ALICE@EXAMPLE.COM"); err != nil {
		return err
	}
	if err := users.SetPasswordHash(ctx, user, string(hash)); err != nil {
		return err
	}
	if err := users.AddLogin(ctx, user, identity.UserLogin{
		LoginProvider:       "google",
		ProviderKey:         "pk-123",
		ProviderDisplayName: "Google",
	}); err != nil {
		return err
	}
	if err := users.AddClaims(ctx, user, identity.UserClaim{Type: "plan", Value: "pro"}); err != nil {
		return err
	}
	if err := users.SetToken(ctx, user, "google", "refresh", "tok-1"); err != nil {
		return err
	}
	if err := users.AddToRole(ctx, user, "ADMIN"); err != nil {
		return err
	}
	if err := users.Update(ctx, user); err != nil {
		return err
	}
	logger.Info(ctx, "user persisted", "hasPassword", users.HasPassword(user))

	byName, err := users.FindByName(ctx, "ALICE")
	if err != nil {
		return err
	}
	logger.Info(ctx, "found by name", "id", users.UserID(byName), "inRole", users.IsInRole(byName, "ADMIN"))

	byLogin, err := users.FindByLogin(ctx, "google", "pk-123")
	if err != nil {
		return err
	}
	logger.Info(ctx, "found by login", "id", users.UserID(byLogin))

	byEmail, err := users.FindByEmail(ctx, "ALICE@EXAMPLE.COM")
	if err != nil {
		return err
	}
	logger.Info(ctx, "found by email", "id", users.UserID(byEmail))

	it := users.All(ctx)
	count := 0
	for {
		_, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return err
		}
		count++
	}
	logger.Info(ctx, "user kind scanned", "count", count)

	return nil
}

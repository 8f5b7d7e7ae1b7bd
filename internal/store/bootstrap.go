package store

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Bootstrap creates the site tables if they do not exist and seeds the
// default admin user. Safe to run on every startup.
func (s *Store) Bootstrap(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, s.Dialect.SiteTablesSQL()); err != nil {
		return fmt.Errorf("bootstrap site tables: %w", err)
	}
	if err := s.seedAdminUser(ctx); err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	return nil
}

func (s *Store) seedAdminUser(ctx context.Context) error {
	var count int
	err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM admin_users").Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte("changeme"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	pb := s.Dialect.NewParamBuilder()
	var sqlStr string
	if s.Dialect.GeneratesUUIDs() {
		sqlStr = fmt.Sprintf("INSERT INTO admin_users (email, password_hash) VALUES (%s, %s)",
			pb.Add("admin@localhost"), pb.Add(string(hashBytes)))
	} else {
		sqlStr = fmt.Sprintf("INSERT INTO admin_users (id, email, password_hash) VALUES (%s, %s, %s)",
			pb.Add(uuid.NewString()), pb.Add("admin@localhost"), pb.Add(string(hashBytes)))
	}

	if _, err := s.DB.ExecContext(ctx, sqlStr, pb.Params()...); err != nil {
		return err
	}

	log.Println("WARNING: Default admin user created (admin@localhost / changeme), change the password immediately.")
	return nil
}

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hamed0406/pgpinger/internal/config"
	"github.com/hamed0406/pgpinger/internal/probe"
)

var errCheckFailed = errors.New("connection check failed")

type options struct {
	configPath string
	user       string
	timeout    time.Duration
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "dbcheck",
		Short: "One-shot PostgreSQL connection check",
		Long: `Connects once using the whitelisted keys of a connection file plus
interactively supplied credentials, then prints the server version,
password encryption method and database encoding.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), opts, in, out)
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "config.json", "connection file (JSON or YAML)")
	cmd.Flags().StringVarP(&opts.user, "user", "u", "", "database user (prompted when empty and DB_USER unset)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "overall time limit for the check")
	return cmd
}

func runCheck(ctx context.Context, opts *options, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	fc, err := config.LoadFile(opts.configPath)
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return err
	}
	t := config.TargetFromFile(fc)

	fmt.Fprintln(out, "=== PostgreSQL Connection ===")
	reader := bufio.NewReader(in)
	t.User = firstNonEmpty(opts.user, os.Getenv("DB_USER"))
	if t.User == "" {
		fmt.Fprint(out, "Username: ")
		line, _ := reader.ReadString('\n')
		t.User = strings.TrimSpace(line)
	}
	if pw, ok := os.LookupEnv("DB_PASSWORD"); ok {
		t.Password = pw
	} else {
		fmt.Fprint(out, "Password: ")
		t.Password, err = readPassword(in, reader)
		fmt.Fprintln(out)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
	}
	if t.DBName == "" {
		fmt.Fprintln(out, "Error: database name (dbname) must be specified in the connection file")
		return errCheckFailed
	}

	fmt.Fprintf(out, "\nConnection parameters: %s\n", describeParams(t))

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	fmt.Fprintln(out, "\nConnecting to database...")
	info, err := inspect(ctx, t.ConnString())
	if err != nil {
		pe := probe.Classify(err)
		fmt.Fprintf(out, "\n❌ Connection failed (%s): %v\n", pe.Kind, err)
		fmt.Fprintln(out, "\nTroubleshooting tips:")
		fmt.Fprintln(out, "1. Check that the PostgreSQL server or container is running")
		fmt.Fprintln(out, "2. Verify username/password")
		fmt.Fprintf(out, "3. Check the settings in %s\n", opts.configPath)
		return errCheckFailed
	}

	fmt.Fprintf(out, "\n✅ PostgreSQL Version: %s\n", info.version)
	fmt.Fprintf(out, "✅ Authentication Method: %s\n", info.passwordEncryption)
	if info.encoding != "" {
		fmt.Fprintf(out, "✅ Database Encoding: %s\n", info.encoding)
	}
	fmt.Fprintln(out, "\n✅ Connection successful!")
	return nil
}

type serverInfo struct {
	version            string
	passwordEncryption string
	encoding           string
}

func inspect(ctx context.Context, connString string) (serverInfo, error) {
	var info serverInfo
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return info, err
	}
	defer conn.Close(context.Background())

	if err := conn.QueryRow(ctx, "SELECT version()").Scan(&info.version); err != nil {
		return info, fmt.Errorf("version: %w", err)
	}
	if err := conn.QueryRow(ctx, "SHOW password_encryption").Scan(&info.passwordEncryption); err != nil {
		return info, fmt.Errorf("password_encryption: %w", err)
	}
	err = conn.QueryRow(ctx,
		"SELECT pg_encoding_to_char(encoding) FROM pg_database WHERE datname = current_database()",
	).Scan(&info.encoding)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return info, fmt.Errorf("encoding: %w", err)
	}
	return info, nil
}

// readPassword hides input on a terminal and falls back to a plain line read
// when stdin is piped.
func readPassword(in io.Reader, buffered *bufio.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		return string(b), err
	}
	line, err := buffered.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func describeParams(t config.Target) string {
	parts := []string{
		"host=" + t.Host,
		"port=" + strconv.Itoa(t.Port),
		"dbname=" + t.DBName,
		"user=" + t.User,
		"password=***hidden***",
		"sslmode=" + t.SSLMode,
	}
	if t.ConnectTimeout > 0 {
		parts = append(parts, "connect_timeout="+strconv.Itoa(t.ConnectTimeout))
	}
	parts = append(parts, "client_encoding="+t.ClientEncoding)
	return strings.Join(parts, " ")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

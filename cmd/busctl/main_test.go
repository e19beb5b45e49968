package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const cliTravelDate = "20/12/2099"

type cli struct {
	t       *testing.T
	dataDir string
}

func newCLI(t *testing.T) *cli {
	return &cli{t: t, dataDir: t.TempDir()}
}

// exec runs busctl against the test data directory and returns stdout
func (c *cli) exec(args ...string) (string, error) {
	c.t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--data-dir", c.dataDir}, args...)
	err := run(context.Background(), full, &stdout, &stderr)
	return stdout.String(), err
}

func (c *cli) mustExec(args ...string) string {
	c.t.Helper()
	out, err := c.exec(args...)
	require.NoError(c.t, err)
	return out
}

func (c *cli) addBus(number, seats string) string {
	return c.mustExec("add-bus",
		"--number", number,
		"--source", "Colombo",
		"--destination", "Kandy",
		"--departure", "08:00",
		"--arrival", "11:30",
		"--date", cliTravelDate,
		"--seats", seats,
		"--price", "100",
	)
}

func (c *cli) book(seat, name string) (string, error) {
	return c.exec("book",
		"--bus", "101",
		"--date", cliTravelDate,
		"--source", "Colombo",
		"--destination", "Kandy",
		"--seat", seat,
		"--name", name,
		"--contact", "0771234567",
		"--age", "30",
		"--gender", "F",
	)
}

func TestRun_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), nil, &stdout, &stderr)
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, stderr.String(), "add-bus")

	stderr.Reset()
	err = run(context.Background(), []string{"no-such-command"}, &stdout, &stderr)
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, stderr.String(), `unknown command "no-such-command"`)
}

func TestRun_MissingRequiredFlag(t *testing.T) {
	c := newCLI(t)

	_, err := c.exec("add-bus", "--number", "B1")
	assert.ErrorIs(t, err, errUsage)
}

func TestRun_CommandHelp(t *testing.T) {
	c := newCLI(t)

	_, err := c.exec("book", "--help")
	assert.NoError(t, err)
}

func TestRun_BusLifecycle(t *testing.T) {
	c := newCLI(t)

	out := c.addBus("NB-1234", "2")
	assert.Contains(t, out, "Bus added successfully with ID 101")

	out = c.mustExec("list-buses")
	assert.Contains(t, out, "NB-1234")
	assert.Contains(t, out, "Colombo -> Kandy")

	out = c.mustExec("search", "--number", "NB-1234")
	assert.Contains(t, out, "NB-1234")

	out = c.mustExec("search", "--source", "Galle", "--destination", "Matara")
	assert.Contains(t, out, "No buses found.")

	out = c.mustExec("update-price", "--bus", "101", "--price", "150")
	assert.Contains(t, out, "set to 150.00")

	_, err := c.exec("update-price", "--bus", "999", "--price", "150")
	assert.Error(t, err)

	out = c.mustExec("delete-bus", "--bus", "101")
	assert.Contains(t, out, "Bus 101 deleted successfully")

	out = c.mustExec("list-buses")
	assert.Contains(t, out, "No buses found.")
}

func TestRun_BookingAndBilling(t *testing.T) {
	c := newCLI(t)
	c.addBus("B1", "2")

	out, err := c.book("1", "Alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Ticket ID: 1001")
	assert.Contains(t, out, "Seats remaining: 1")

	_, err = c.book("1", "Bob")
	assert.Error(t, err)

	out = c.mustExec("view-ticket", "--ticket", "1001")
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "Active")
	assert.Regexp(t, `Booked:\s+\d{2}/\d{2}/\d{4} \d{2}:\d{2}`, out)

	out, err = c.book("2", "Bob")
	require.NoError(t, err)
	assert.Contains(t, out, "Bill 501 generated, total revenue 200.00")

	out = c.mustExec("bills")
	assert.Contains(t, out, "Bill 501 for bus B1")
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "Bob")

	pdfPath := filepath.Join(t.TempDir(), "bill.pdf")
	out = c.mustExec("bill-pdf", "--bill", "501", "--out", pdfPath)
	assert.Contains(t, out, pdfPath)
	pdf, err := os.ReadFile(pdfPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	out = c.mustExec("cancel", "--ticket", "1001")
	assert.Contains(t, out, "Refund amount: 100.00")

	_, err = c.exec("view-ticket", "--ticket", "1001")
	assert.Error(t, err)

	out = c.mustExec("bookings")
	assert.Contains(t, out, "Cancelled")
	assert.Contains(t, out, "Active")
}

func TestRun_CBORCodec(t *testing.T) {
	c := newCLI(t)

	c.mustExec("--codec", "cbor", "add-bus",
		"--number", "B1",
		"--source", "Colombo",
		"--destination", "Kandy",
		"--date", cliTravelDate,
		"--seats", "5",
	)

	out := c.mustExec("--codec", "cbor", "list-buses")
	assert.Contains(t, out, "B1")

	_, err := os.Stat(filepath.Join(c.dataDir, "buses.cbor"))
	assert.NoError(t, err)
}

func TestRun_HashPassword(t *testing.T) {
	c := newCLI(t)

	out := c.mustExec("hash-password", "--password", "s3cret", "--cost", "4")
	hash := strings.TrimPrefix(strings.TrimSpace(out), "OPERATOR_PASSWORD_HASH=")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))
}

func TestRun_GenSecret(t *testing.T) {
	c := newCLI(t)

	out := c.mustExec("gen-secret")
	secret := strings.TrimPrefix(strings.TrimSpace(out), "JWT_SECRET=")
	assert.Len(t, secret, 64)

	_, err := c.exec("gen-secret", "--bytes", "4")
	assert.Error(t, err)
}

func TestRun_LedgerRulesFromEnvironment(t *testing.T) {
	t.Setenv("LEDGER_MAX_SEATS_PER_BUS", "4")
	c := newCLI(t)

	out := c.addBus("B1", "10")
	assert.Contains(t, out, "Bus added successfully with ID 101 (4 seats)")
}

func TestRun_LedgerRuleFlags(t *testing.T) {
	c := newCLI(t)

	out := c.mustExec("--max-seats", "3", "add-bus",
		"--number", "B1",
		"--source", "Colombo",
		"--destination", "Kandy",
		"--date", cliTravelDate,
		"--seats", "5",
	)
	assert.Contains(t, out, "(3 seats)")

	_, err := c.exec("--max-seats", "3", "--reject-oversized-seats", "add-bus",
		"--number", "B2",
		"--source", "Colombo",
		"--destination", "Kandy",
		"--date", cliTravelDate,
		"--seats", "5",
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum seat limit is 3")

	_, err = c.exec("--max-seats", "0", "list-buses")
	assert.Error(t, err)
}

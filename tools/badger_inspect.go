package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	"github.com/olekukonko/tablewriter"

	"bell-registry/domain"
	"bell-registry/repositories"
)

func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to badger DB")
	// Message rows by default; sender markers and secondary keys are skipped
	prefix := flag.String("prefix", "msg:", "Prefix to scan (msg:, conv:, user:)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Type", "Timestamp", "Entity ID", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			rawKey := string(item.Key())

			// Marker and lookup keys carry no JSON payload worth showing
			if strings.HasPrefix(rawKey, "sender:") ||
				strings.HasPrefix(rawKey, "convmember:") ||
				strings.HasPrefix(rawKey, "convpair:") ||
				strings.HasPrefix(rawKey, "userid:") {
				continue
			}

			err := item.Value(func(v []byte) error {
				rowType, timestamp, entityID, detail := describe(rawKey, v)
				table.Append([]string{rawKey, rowType, timestamp, shortID(entityID), detail})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

func describe(key string, value []byte) (rowType, timestamp, entityID, detail string) {
	switch {
	case strings.HasPrefix(key, "msg:"):
		var m domain.Message
		if err := json.Unmarshal(value, &m); err != nil {
			return "MSG", "", "", fmt.Sprintf("unmarshal error: %v", err)
		}
		return "MSG", m.CreatedAt.Format("15:04:05"), m.ID,
			fmt.Sprintf("%s: %s", shortID(m.SenderID), m.Content)
	case strings.HasPrefix(key, "conv:"):
		var c domain.Conversation
		if err := json.Unmarshal(value, &c); err != nil {
			return "CONV", "", "", fmt.Sprintf("unmarshal error: %v", err)
		}
		return "CONV", c.LastMessageAt.Format("15:04:05"), c.ID,
			fmt.Sprintf("%s <-> %s [%s]", shortID(c.ClientID), shortID(c.ProfessionalID), c.Status)
	case strings.HasPrefix(key, "user:"):
		var u repositories.User
		if err := json.Unmarshal(value, &u); err != nil {
			return "USER", "", "", fmt.Sprintf("unmarshal error: %v", err)
		}
		return "USER", u.CreatedAt.Format("15:04:05"), u.ID,
			fmt.Sprintf("%s (%s)", u.Email, u.Role)
	}
	return "RAW", "", "", fmt.Sprintf("%d bytes", len(value))
}

// shortID keeps the first 8 characters of an id for readability
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)

	db, err := badger.Open(opts)
	if err != nil {
		if strings.Contains(err.Error(), "Log truncate required") {
			repairOpts := badger.DefaultOptions(path).
				WithLogger(nil).WithBypassLockGuard(true)

			db, err = badger.Open(repairOpts)
			if err != nil {
				return nil, fmt.Errorf("repair failed: %w", err)
			}

			db.Close()
			return badger.Open(opts)
		}
		return nil, err
	}
	return db, nil
}

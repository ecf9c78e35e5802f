// Command inspect dumps the contents of a server database in a readable
// table: conversations, messages, history entries, or user profiles
// depending on the chosen prefix.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
)

type config struct {
	BadgerFilepath string `envconfig:"BADGER_FILEPATH" default:"./data/badger"`
	Colours        bool   `envconfig:"INSPECT_COLOURS" default:"true"`
}

type diskMessage struct {
	ID       string `json:"id"`
	ChatID   string `json:"chat_id"`
	UID      string `json:"u_id"`
	Username string `json:"username"`
	Kind     int    `json:"type"`
	Text     string `json:"text"`
	At       int64  `json:"time"`
}

type diskConversation struct {
	ChatID       string    `json:"chat_id"`
	Participants [2]string `json:"users"`
	LastActivity time.Time `json:"last_activity"`
}

type diskProfile struct {
	UID      string `json:"u_id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

func main() {
	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("config loading failed %v", err)
	}

	dbPath := flag.String("db", cfg.BadgerFilepath, "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan (msg:, chat:id:, hist:, user:id:)")
	limit := flag.Int("limit", 0, "Maximum rows to print (0 = no limit)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	header := fmt.Sprintf(" Scanning %q in %s ", *prefix, *dbPath)
	if cfg.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	fmt.Println(header)

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

	rows := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			if *limit > 0 && rows >= *limit {
				return nil
			}
			item := it.Item()
			rawKey := string(item.Key())

			// Pair index entries hold a bare chat id, not a record
			if strings.HasPrefix(rawKey, "chat:pair:") || strings.HasPrefix(rawKey, "user:name:") {
				continue
			}

			err := item.Value(func(v []byte) error {
				rowType, timestamp, entityID, detail := describe(rawKey, v)
				table.Append([]string{rawKey, rowType, timestamp, shorten(entityID), detail})
				rows++
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
	fmt.Printf("%d rows\n", rows)
}

// describe maps one stored record to its table row. Records that fail to
// decode are reported inline instead of stopping the whole scan.
func describe(key string, value []byte) (rowType, timestamp, entityID, detail string) {
	switch {
	case strings.HasPrefix(key, "msg:"):
		var m diskMessage
		if err := json.Unmarshal(value, &m); err != nil {
			return "MSG", "", "", fmt.Sprintf("decode error: %v", err)
		}
		kind := "USER"
		if m.Kind == 0 {
			kind = "SYSTEM"
		}
		at := time.Unix(0, m.At).UTC().Format("15:04:05")
		return kind, at, m.ID, fmt.Sprintf("%s: %s", m.Username, m.Text)

	case strings.HasPrefix(key, "chat:id:"):
		var c diskConversation
		if err := json.Unmarshal(value, &c); err != nil {
			return "CHAT", "", "", fmt.Sprintf("decode error: %v", err)
		}
		at := c.LastActivity.UTC().Format("2006-01-02 15:04:05")
		return "CHAT", at, c.ChatID, fmt.Sprintf("%s <-> %s", c.Participants[0], c.Participants[1])

	case strings.HasPrefix(key, "hist:"):
		return "HIST", "", "", string(value)

	case strings.HasPrefix(key, "user:id:"):
		var p diskProfile
		if err := json.Unmarshal(value, &p); err != nil {
			return "USER", "", "", fmt.Sprintf("decode error: %v", err)
		}
		return "USER", "", p.UID, fmt.Sprintf("@%s (%s)", p.Username, p.Name)

	default:
		return "RAW", "", "", strconv.Quote(string(value))
	}
}

func shorten(id string) string {
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

	return badger.Open(opts)
}

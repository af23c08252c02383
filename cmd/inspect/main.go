// Command inspect prints the connections and messages stored in a Badger directory.
// It opens the database read-only, so it can run next to a live server.
package main

import (
	"artisan-link/domain"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/database"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to badger DB")
	connection := flag.String("connection", "", "Only show the messages of this connection id")
	colours := flag.Bool("colours", true, "Colour the status column")
	flag.Parse()

	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	if *connection == "" {
		if err = printConnections(db, *colours); err != nil {
			log.Fatal(err)
		}
	}
	if err = printMessages(db, "msg:"+*connection); err != nil {
		log.Fatal(err)
	}
}

func newTable(header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func printConnections(db *badger.DB, colours bool) error {
	table := newTable("Id", "NGO", "Artisan", "Status", "Created", "Updated")
	err := scan(db, "conn:", func(key string, value []byte) {
		var conn domain.Connection
		if err := json.Unmarshal(value, &conn); err != nil {
			fmt.Printf("Error unmarshaling key %s: %v\n", key, err)
			return
		}
		table.Append([]string{
			conn.ID.String(),
			conn.NGOID,
			conn.ArtisanID,
			paintStatus(conn.Status, colours),
			conn.CreatedAt.Format("2006-01-02 15:04:05"),
			conn.UpdatedAt.Format("2006-01-02 15:04:05"),
		})
	})
	if err != nil {
		return err
	}
	fmt.Println(color.Bold.Render("Connections"))
	table.Render()
	fmt.Println()
	return nil
}

func printMessages(db *badger.DB, prefix string) error {
	table := newTable("Connection", "Seq", "Sender", "At", "Flags", "Read by", "Content")
	err := scan(db, prefix, func(key string, value []byte) {
		var message domain.Message
		if err := json.Unmarshal(value, &message); err != nil {
			fmt.Printf("Error unmarshaling key %s: %v\n", key, err)
			return
		}
		var flags []string
		if message.IsEdited {
			flags = append(flags, "edited")
		}
		table.Append([]string{
			message.ConnectionID.String()[:8],
			fmt.Sprint(message.Sequence),
			message.SenderID,
			message.CreatedAt.Format("15:04:05"),
			strings.Join(flags, ","),
			strings.Join(message.ReadBy, ","),
			truncate(message.Content, 60),
		})
	})
	if err != nil {
		return err
	}
	fmt.Println(color.Bold.Render("Messages"))
	table.Render()
	return nil
}

func scan(db *badger.DB, prefix string, fn func(key string, value []byte)) error {
	return db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())
			if err := item.Value(func(v []byte) error {
				fn(key, v)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

func paintStatus(status domain.ConnectionStatus, colours bool) string {
	if !colours {
		return string(status)
	}
	switch status {
	case domain.ConnectionStatusAccepted:
		return color.Green.Render(string(status))
	case domain.ConnectionStatusRejected:
		return color.Red.Render(string(status))
	default:
		return color.Yellow.Render(string(status))
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}

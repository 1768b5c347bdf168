// Command picnc is a thin client for picnd's management surface (§6.4):
// it issues the textual GET requests by hand and prints the response
// body, the same role tools/nfdc plays for the forwarder's NDN
// management protocol.
package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/spf13/cobra"
)

var mgmtAddr string

var rootCmd = &cobra.Command{
	Use:   "picnc",
	Short: "Management client for picnd",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&mgmtAddr, "mgmt", "http://127.0.0.1:9696", "picnd management surface base URL")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "newface HOST:PORT",
		Short: "Stand up a new TCP face to HOST:PORT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return get("/linklayer/newface/" + args[0])
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "route NAME FID[,FID...]",
		Short: "Install a forwarding rule for NAME toward the given face(s)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return get("/icnlayer/newforwardingrule/" + url.QueryEscape(args[0]) + ":" + args[1])
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "seed NAME PAYLOAD",
		Short: "Seed the Content Store with a static entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return get("/icnlayer/newcontent/" + url.QueryEscape(args[0]) + ":" + args[1])
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Report Content Store / PIT / FIB counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return get("/icnlayer/info")
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "shutdown",
		Short: "Request a clean node shutdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			return get("/shutdown")
		},
	})
}

func get(path string) error {
	resp, err := http.Get(mgmtAddr + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	fmt.Print(string(body))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

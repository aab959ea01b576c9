package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/thereceipt/print-agent/internal/command"
	"github.com/thereceipt/print-agent/internal/config"
	"github.com/thereceipt/print-agent/internal/layout"
	"github.com/thereceipt/print-agent/internal/order"
	"github.com/thereceipt/print-agent/internal/receipt"
	"github.com/thereceipt/print-agent/internal/renderer"
)

const (
	defaultServerURL = "http://localhost:4000"
)

func main() {
	var serverURL, configFile string
	flag.StringVar(&serverURL, "server", defaultServerURL, "Agent URL")
	flag.StringVar(&serverURL, "s", defaultServerURL, "Agent URL (short)")
	flag.StringVar(&configFile, "config", "", "print-agent.toml used by local commands")
	flag.Parse()

	if flag.NArg() == 0 {
		printUsage()
		os.Exit(1)
	}

	args := flag.Args()

	var result *CommandResult
	switch args[0] {
	case "preview":
		result = runPreview(configFile, args[1:])
	case "layout":
		result = runLayout(configFile, args[1:])
	case "print":
		result = sendPrint(serverURL, args[1:])
	default:
		result = executeCommand(serverURL, strings.Join(quoteArgs(args), " "))
	}

	if result.Success {
		printSuccess(result)
		os.Exit(0)
	}
	printError(result)
	os.Exit(1)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Print Agent CLI

Usage:
  print-cli [flags] <command>

Flags:
  -s, -server <url>    Agent URL (default: %s)
  -config <file>       Config used by preview and layout

Commands sent to the agent:
  printers
    List the printers from the last refresh

  refresh
    Discover printers again

  print <printer-name> <order.json>
    Print an order file on the named printer

Local commands, no agent needed:
  preview <order.json> <output.png>
    Render an order to a PNG file

  layout <order.json>
    Print the receipt display list as JSON

Examples:
  print-cli printers
  print-cli print Kitchen ./order.json
  print-cli print tcp://192.168.1.50:9100 ./order.json
  print-cli preview ./order.json ./order.png
  print-cli -s http://10.0.0.2:4000 refresh

`, defaultServerURL)
}

// CommandResult mirrors the agent's command response
type CommandResult struct {
	Success bool
	Message string
	Data    map[string]interface{}
	Error   string
}

// quoteArgs re-quotes arguments containing spaces so the agent's command
// parser sees them as one token
func quoteArgs(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if strings.ContainsAny(a, " \t") {
			a = `"` + a + `"`
		}
		out[i] = a
	}
	return out
}

func executeCommand(serverURL, cmd string) *CommandResult {
	return post(strings.TrimSuffix(serverURL, "/")+"/command", map[string]string{"command": cmd})
}

// sendPrint reads the order locally and posts it to /print, so the agent
// does not need access to the file
func sendPrint(serverURL string, args []string) *CommandResult {
	if len(args) < 2 {
		return &CommandResult{Error: "usage: print <printer-name> <order.json>"}
	}
	data, err := os.ReadFile(args[1])
	if err != nil {
		return &CommandResult{Error: fmt.Sprintf("failed to read order: %v", err)}
	}

	var body map[string]interface{}
	if err := json.Unmarshal(data, &body); err != nil {
		return &CommandResult{Error: fmt.Sprintf("failed to parse order: %v", err)}
	}
	body["printerName"] = args[0]

	result := post(strings.TrimSuffix(serverURL, "/")+"/print", body)
	if result.Success {
		result.Message = fmt.Sprintf("Order sent to %s", args[0])
	}
	return result
}

func post(url string, payload interface{}) *CommandResult {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return &CommandResult{Error: fmt.Sprintf("failed to marshal request: %v", err)}
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(jsonData))
	if err != nil {
		return &CommandResult{Error: fmt.Sprintf("failed to connect to agent: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &CommandResult{Error: fmt.Sprintf("failed to read response: %v", err)}
	}

	return parseResponse(resp.StatusCode, body)
}

// parseResponse splits the agent's flat JSON object into a CommandResult
func parseResponse(status int, body []byte) *CommandResult {
	var fields map[string]interface{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return &CommandResult{Error: fmt.Sprintf("failed to parse response (HTTP %d): %v", status, err)}
	}

	result := &CommandResult{Data: map[string]interface{}{}}
	for k, v := range fields {
		switch k {
		case "success":
			result.Success, _ = v.(bool)
		case "message":
			result.Message, _ = v.(string)
		case "error":
			result.Error, _ = v.(string)
		default:
			result.Data[k] = v
		}
	}
	if result.Error == "" && status >= 400 {
		result.Success = false
		result.Error = fmt.Sprintf("HTTP %d", status)
	}
	return result
}

// localOptions builds layout options and fonts from the local config
func localOptions(configFile string) (layout.Options, renderer.FontSet, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return layout.Options{}, renderer.FontSet{}, err
	}
	loc, err := cfg.Render.Location()
	if err != nil {
		return layout.Options{}, renderer.FontSet{}, err
	}

	opts := layout.DefaultOptions()
	opts.PaperWidth = cfg.Render.PaperWidth
	opts.Location = loc
	opts.LogoPath = cfg.Render.LogoPath
	opts.FooterCode = cfg.Render.FooterCode
	return opts, renderer.FontSet{Regular: cfg.Render.FontRegular, Bold: cfg.Render.FontBold}, nil
}

func runPreview(configFile string, args []string) *CommandResult {
	opts, fonts, err := localOptions(configFile)
	if err != nil {
		return &CommandResult{Error: err.Error()}
	}
	r := receipt.New(opts, renderer.New(fonts), nil, nil)
	res := command.NewExecutor(nil, nil, r).Execute(context.Background(), strings.Join(quoteArgs(append([]string{"preview"}, args...)), " "))
	return &CommandResult{Success: res.Success, Message: res.Message, Data: res.Data, Error: res.Error}
}

func runLayout(configFile string, args []string) *CommandResult {
	if len(args) < 1 {
		return &CommandResult{Error: "usage: layout <order.json>"}
	}
	opts, _, err := localOptions(configFile)
	if err != nil {
		return &CommandResult{Error: err.Error()}
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return &CommandResult{Error: fmt.Sprintf("failed to read order: %v", err)}
	}
	var rec order.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return &CommandResult{Error: fmt.Sprintf("failed to parse order: %v", err)}
	}

	display, err := layout.Build(&rec, opts)
	if err != nil {
		return &CommandResult{Error: err.Error()}
	}
	out, err := display.ToJSON()
	if err != nil {
		return &CommandResult{Error: err.Error()}
	}
	return &CommandResult{Success: true, Message: string(out)}
}

func printSuccess(result *CommandResult) {
	if result.Message != "" {
		fmt.Println(result.Message)
	}

	if printers, ok := result.Data["printers"].([]interface{}); ok {
		fmt.Println(renderPrinters(printers))
	}
	if orderID, ok := result.Data["order_id"].(string); ok {
		fmt.Println(MutedStyle.Render("Order: #" + orderID))
	}
	if path, ok := result.Data["path"].(string); ok {
		fmt.Println(SuccessStyle.Render("✓ " + path))
	}
}

func printError(result *CommandResult) {
	msg := result.Error
	if msg == "" {
		msg = result.Message
	}
	fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+msg)
	if kind, ok := result.Data["kind"].(string); ok {
		fmt.Fprintln(os.Stderr, MutedStyle.Render("kind: "+kind))
	}
}

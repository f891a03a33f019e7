package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/abkawan/cpf-ledger/internal/models"
	"github.com/abkawan/cpf-ledger/internal/service"
	"github.com/shopspring/decimal"
)

const (
	successColor = "\033[32m" // Green
	errorColor   = "\033[31m" // Red
	infoColor    = "\033[34m" // Blue
	resetColor   = "\033[0m"  // Reset color
)

var client = &http.Client{Timeout: 10 * time.Second}

func main() {
	baseURL := flag.String("url", "http://localhost:3333", "base URL of the ledger API")
	numCustomers := flag.Int("customers", 100, "number of customers to create")
	numOperations := flag.Int("operations", 10000, "total number of deposits and withdrawals")
	maxConcurrency := flag.Int("concurrency", 200, "maximum number of concurrent requests")
	maxAmount := flag.Float64("max-amount", 1000, "maximum operation amount")
	flag.Parse()

	fmt.Printf("%sstarting a load test with %d customers and %d operations%s\n",
		infoColor, *numCustomers, *numOperations, resetColor)

	runID := time.Now().UnixNano()
	cpfs := createCustomers(*baseURL, *numCustomers, runID)
	if len(cpfs) == 0 {
		fmt.Printf("%sno customers created, aborting%s\n", errorColor, resetColor)
		return
	}
	fmt.Printf("%sCreated %d customers%s\n", successColor, len(cpfs), resetColor)

	// semaphore for limiting concurrency
	sem := make(chan struct{}, *maxConcurrency)
	var wg sync.WaitGroup

	startTime := time.Now()
	var (
		mu           sync.Mutex
		successCount int
		rejectCount  int
		errorCount   int
	)

	for i := 0; i < *numOperations; i++ {
		wg.Add(1)
		sem <- struct{}{}

		go func(opNum int) {
			defer wg.Done()
			defer func() { <-sem }()

			cpf := cpfs[rand.Intn(len(cpfs))]
			amount := decimal.NewFromFloat(1 + rand.Float64()*(*maxAmount-1)).Round(2)

			var (
				status int
				err    error
			)
			kind := "deposit"
			if rand.Intn(2) == 1 {
				kind = "withdraw"
				status, err = post(*baseURL+"/withdraw", cpf, models.WithdrawRequest{Amount: amount})
			} else {
				status, err = post(*baseURL+"/deposit", cpf, models.DepositRequest{
					Description: fmt.Sprintf("load-%d", opNum),
					Amount:      amount,
				})
			}

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				errorCount++
				if opNum%100 == 0 {
					fmt.Printf("%s%s failed: %v%s\n", errorColor, kind, err, resetColor)
				}
			case status == http.StatusBadRequest:
				// insufficient funds is an expected outcome for random withdrawals
				rejectCount++
			default:
				successCount++
			}
		}(i)
	}

	wg.Wait()
	duration := time.Since(startTime)

	fmt.Printf("\n%s=== Load Test Results ===%s\n", infoColor, resetColor)
	fmt.Printf("Total operations: %d\n", *numOperations)
	fmt.Printf("Successful: %s%d%s\n", successColor, successCount, resetColor)
	fmt.Printf("Rejected: %d\n", rejectCount)
	fmt.Printf("Failed: %s%d%s\n", errorColor, errorCount, resetColor)
	fmt.Printf("Duration: %.2f seconds\n", duration.Seconds())
	fmt.Printf("Throughput: %.2f operations/second\n", float64(*numOperations)/duration.Seconds())

	fmt.Printf("\n%sChecking balances against statements...%s\n", infoColor, resetColor)
	checkBalances(*baseURL, cpfs)
}

func createCustomers(baseURL string, count int, runID int64) []string {
	cpfs := make([]string, 0, count)

	for i := 0; i < count; i++ {
		cpf := fmt.Sprintf("%d-%d", runID, i)
		status, err := post(baseURL+"/account", "", models.CreateAccountRequest{
			CPF:  cpf,
			Name: fmt.Sprintf("Load Customer %d", i),
		})
		if err != nil || status != http.StatusCreated {
			fmt.Printf("%sFailed to create customer %s (status %d): %v%s\n", errorColor, cpf, status, err, resetColor)
			continue
		}
		cpfs = append(cpfs, cpf)
	}

	return cpfs
}

// checkBalances compares GET /balance with the balance folded from GET /statement
func checkBalances(baseURL string, cpfs []string) {
	mismatches := 0
	for _, cpf := range cpfs {
		var balance decimal.Decimal
		if err := get(baseURL+"/balance", cpf, &balance); err != nil {
			fmt.Printf("%sFailed to get balance for %s: %v%s\n", errorColor, cpf, err, resetColor)
			continue
		}

		var statement []models.Operation
		if err := get(baseURL+"/statement", cpf, &statement); err != nil {
			fmt.Printf("%sFailed to get statement for %s: %v%s\n", errorColor, cpf, err, resetColor)
			continue
		}

		expected := service.CalculateBalance(statement)
		if !expected.Equal(balance) || balance.IsNegative() {
			mismatches++
			fmt.Printf("%sCustomer %s: balance %s, statement adds up to %s%s\n",
				errorColor, cpf, balance, expected, resetColor)
		}
	}

	if mismatches == 0 {
		fmt.Printf("%sAll %d balances are consistent%s\n", successColor, len(cpfs), resetColor)
	}
}

func post(url, cpf string, body interface{}) (int, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal JSON: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if cpf != "" {
		req.Header.Set("cpf", cpf)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

func get(url, cpf string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("cpf", cpf)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

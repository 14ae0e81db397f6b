package discovery

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/weprint/agent/internal/model"
)

// Scanner probes a subnet for printer control APIs. It runs once at
// startup when no endpoint is configured; the result is persisted and the
// scan is never repeated automatically.
type Scanner struct {
	httpClient *http.Client
	workers    int

	// overridable for tests pointing at local fakes
	moonrakerPort int
	octoprintPort int
}

func NewScanner(workers int) *Scanner {
	if workers <= 0 {
		workers = 50
	}
	return &Scanner{
		httpClient:    &http.Client{Timeout: 3 * time.Second},
		workers:       workers,
		moonrakerPort: 7125,
		octoprintPort: 5000,
	}
}

// Scan probes every host in the CIDR subnet with bounded concurrency and
// returns the endpoints that answered a printer API probe.
func (s *Scanner) Scan(ctx context.Context, subnet string) ([]model.PrinterEndpoint, error) {
	hosts, err := hostsInSubnet(subnet)
	if err != nil {
		return nil, fmt.Errorf("invalid subnet %q: %w", subnet, err)
	}
	log.Printf("[Discovery] scanning %s (%d hosts)", subnet, len(hosts))

	jobs := make(chan string)
	var (
		mu    sync.Mutex
		found []model.PrinterEndpoint
		wg    sync.WaitGroup
	)

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for host := range jobs {
				if kind, ok := s.probe(ctx, host); ok {
					mu.Lock()
					found = append(found, model.PrinterEndpoint{Address: host, Kind: kind})
					mu.Unlock()
				}
			}
		}()
	}

	for _, host := range hosts {
		select {
		case jobs <- host:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return found, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	log.Printf("[Discovery] found %d printer(s)", len(found))
	return found, nil
}

// probe checks Moonraker first, then OctoPrint. The first protocol that
// answers wins.
func (s *Scanner) probe(ctx context.Context, host string) (model.BackendKind, bool) {
	if s.get(ctx, fmt.Sprintf("http://%s:%d/server/info", host, s.moonrakerPort)) {
		return model.BackendMoonraker, true
	}
	if s.get(ctx, fmt.Sprintf("http://%s:%d/api/version", host, s.octoprintPort)) {
		return model.BackendOctoPrint, true
	}
	return "", false
}

func (s *Scanner) get(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// hostsInSubnet expands a CIDR into its usable host addresses, skipping
// network and broadcast for subnets wider than /31.
func hostsInSubnet(subnet string) ([]string, error) {
	ip, ipnet, err := net.ParseCIDR(subnet)
	if err != nil {
		return nil, err
	}

	var hosts []string
	for addr := ip.Mask(ipnet.Mask); ipnet.Contains(addr); addr = nextIP(addr) {
		hosts = append(hosts, addr.String())
	}

	ones, bits := ipnet.Mask.Size()
	if bits-ones > 1 && len(hosts) > 2 {
		hosts = hosts[1 : len(hosts)-1]
	}
	return hosts, nil
}

func nextIP(ip net.IP) net.IP {
	next := make(net.IP, len(ip))
	copy(next, ip)
	for i := len(next) - 1; i >= 0; i-- {
		next[i]++
		if next[i] != 0 {
			break
		}
	}
	return next
}

// Command reversekmips-cli is a thin, offline driver for the reverse
// k-MIPS engine: it reads item/user/query vectors from raw f32 binary
// files, builds one engine variant, runs every query, and writes one
// ground-truth CSV per requested k.
package main

import (
	"bufio"
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/therealutkarshpriyadarshi/reversekmips/pkg/engine"
)

func main() {
	var (
		itemsPath  = flag.String("items", "", "path to raw f32 item vectors (required)")
		usersPath  = flag.String("users", "", "path to raw f32 user vectors (required)")
		queryPath  = flag.String("queries", "", "path to raw f32 query vectors (required)")
		dim        = flag.Int("dim", 0, "vector dimensionality (required)")
		variantStr = flag.String("variant", "H2Simpfer", "engine variant: ExhaustiveScan, H2Linear, H2Simpfer, SAlshSimpfer, SAHCone, H2Cone")
		kMax       = flag.Int("k-max", 10, "largest k to precompute bounds for")
		ks         = flag.String("ks", "", "comma-separated list of k values to query and write (default: 1..k-max)")
		b          = flag.Float64("b", 0.9, "item block norm ratio, in (0,1); used by H2/SA variants")
		kSrp       = flag.Int("k-srp", 64, "SRP-LSH bit count, a multiple of 64; used by SA variants")
		leafSize   = flag.Int("leaf-size", 100, "cone-tree leaf size; used by cone variants")
		c0         = flag.Float64("c0", 0, "QALSH nearest-neighbor approximation ratio (0 uses the built-in default)")
		outPrefix  = flag.String("out", "ground_truth", "output file prefix; writes <prefix>_k=<k>.csv")
	)
	flag.Parse()

	if *itemsPath == "" || *usersPath == "" || *queryPath == "" || *dim <= 0 {
		fmt.Println("usage: reversekmips-cli -items FILE -users FILE -queries FILE -dim N [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	variant, err := engine.ParseVariant(*variantStr)
	if err != nil {
		log.Fatalf("invalid variant: %v", err)
	}

	items, err := loadVectors(*itemsPath, *dim)
	if err != nil {
		log.Fatalf("failed to load items: %v", err)
	}
	users, err := loadVectors(*usersPath, *dim)
	if err != nil {
		log.Fatalf("failed to load users: %v", err)
	}
	queries, err := loadVectors(*queryPath, *dim)
	if err != nil {
		log.Fatalf("failed to load queries: %v", err)
	}

	log.Printf("building %s engine over %d items, %d users (dim=%d, k_max=%d)", variant, len(items), len(users), *dim, *kMax)

	eng, err := engine.BuildEngine(engine.BuildConfig{
		Items:    items,
		Users:    users,
		Variant:  variant,
		KMax:     *kMax,
		B:        float32(*b),
		KSrp:     *kSrp,
		LeafSize: *leafSize,
		C0:       float32(*c0),
	})
	if err != nil {
		log.Fatalf("build_engine failed: %v", err)
	}
	log.Printf("engine built, estimated memory %d bytes", eng.MemoryEstimate())

	kValues, err := parseKValues(*ks, *kMax)
	if err != nil {
		log.Fatalf("invalid -ks: %v", err)
	}

	for _, k := range kValues {
		if err := writeGroundTruth(eng, queries, k, *outPrefix); err != nil {
			log.Fatalf("k=%d: %v", k, err)
		}
		log.Printf("wrote %s_k=%d.csv", *outPrefix, k)
	}
}

// loadVectors reads a raw little-endian f32 file (§6 format) and
// splits it into n rows of dim float32s each.
func loadVectors(path string, dim int) ([][]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(data)%(dim*4) != 0 {
		return nil, fmt.Errorf("%s: size %d is not a multiple of dim*4=%d", path, len(data), dim*4)
	}
	n := len(data) / (dim * 4)

	rows := make([][]float32, n)
	for i := 0; i < n; i++ {
		row := make([]float32, dim)
		for j := 0; j < dim; j++ {
			offset := (i*dim + j) * 4
			bits := binary.LittleEndian.Uint32(data[offset : offset+4])
			row[j] = math.Float32frombits(bits)
		}
		rows[i] = row
	}
	return rows, nil
}

func parseKValues(ks string, kMax int) ([]int, error) {
	if ks == "" {
		out := make([]int, kMax)
		for i := range out {
			out[i] = i + 1
		}
		return out, nil
	}
	parts := strings.Split(ks, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid k value %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// writeGroundTruth queries every row in queries at top-k and writes
// the §6 ground-truth CSV: one ascending-sorted, comma-joined line of
// user ids per query, or an empty line if no user qualifies.
func writeGroundTruth(eng *engine.Engine, queries [][]float32, k int, prefix string) error {
	f, err := os.Create(fmt.Sprintf("%s_k=%d.csv", prefix, k))
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	defer w.Flush()

	for _, q := range queries {
		userIDs, err := eng.ReverseKMips(q, k)
		if err != nil {
			return fmt.Errorf("reverse_k_mips: %w", err)
		}
		sortInts(userIDs)

		parts := make([]string, len(userIDs))
		for i, id := range userIDs {
			parts[i] = strconv.Itoa(id)
		}
		if _, err := fmt.Fprintln(w, strings.Join(parts, ",")); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	return nil
}

func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}

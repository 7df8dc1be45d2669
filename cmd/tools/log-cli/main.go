package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dyzdyz010/voxworld/internal/storage"
	"github.com/dyzdyz010/voxworld/internal/vec"
	"github.com/dyzdyz010/voxworld/internal/world/domain"
)

// Инструмент инспекции журналов изменений чанков.
// Работает напрямую с каталогом BadgerDB, сервер должен быть остановлен.

func main() {
	var (
		dataPath = flag.String("data", "data/world", "каталог BadgerDB хранилища мира")
		command  = flag.String("cmd", "chunks", "команда: chunks, dump, compact")
		x        = flag.Int("x", 0, "X координата чанка")
		y        = flag.Int("y", 0, "Y координата чанка")
		z        = flag.Int("z", 0, "Z координата чанка")
		limit    = flag.Int("limit", 0, "максимум записей при dump (0 — все)")
	)
	flag.Parse()

	store, err := storage.NewWorldStorage(*dataPath)
	if err != nil {
		log.Fatalf("❌ Не удалось открыть хранилище: %v", err)
	}
	defer store.Close()

	coords := vec.Vec3{X: *x, Y: *y, Z: *z}

	switch *command {
	case "chunks":
		if err := listChunks(store); err != nil {
			log.Fatalf("❌ chunks: %v", err)
		}
	case "dump":
		if err := dumpChunk(store, coords, *limit); err != nil {
			log.Fatalf("❌ dump: %v", err)
		}
	case "compact":
		if err := store.Compact(coords); err != nil {
			log.Fatalf("❌ compact: %v", err)
		}
		fmt.Printf("✅ Журнал чанка %v уплотнён\n", coords)
	default:
		fmt.Printf("❌ Неизвестная команда: %s\n", *command)
		fmt.Println("Доступные команды: chunks, dump, compact")
		os.Exit(1)
	}
}

// listChunks перечисляет чанки с сохранённым журналом
func listChunks(store *storage.WorldStorage) error {
	chunks, err := store.Chunks()
	if err != nil {
		return err
	}

	fmt.Printf("📦 Чанков с журналом: %d\n", len(chunks))
	for _, c := range chunks {
		ops, err := store.LoadChanges(c)
		if err != nil {
			return err
		}
		fmt.Printf("  (%d, %d, %d): %d записей\n", c.X, c.Y, c.Z, len(ops))
	}
	return nil
}

// dumpChunk выводит журнал изменений чанка в читаемом виде
func dumpChunk(store *storage.WorldStorage, coords vec.Vec3, limit int) error {
	ops, err := store.LoadChanges(coords)
	if err != nil {
		return err
	}

	fmt.Printf("📜 Журнал чанка (%d, %d, %d): %d записей\n", coords.X, coords.Y, coords.Z, len(ops))
	for i, op := range ops {
		if limit > 0 && i >= limit {
			fmt.Printf("  ... ещё %d записей\n", len(ops)-limit)
			break
		}
		printOp(i, op)
	}
	return nil
}

// printOp выводит одну запись журнала
func printOp(i int, op domain.ChangeOp) {
	lx, ly, lz := domain.XYZ(int(op.Idx))
	pos := fmt.Sprintf("(%2d,%2d,%2d)", lx, ly, lz)

	switch op.Kind {
	case domain.OpSetBlock:
		fmt.Printf("  %6d %s %-12s block=%d\n", i, pos, op.Kind, op.Block)
	case domain.OpAddFlag, domain.OpRemoveFlag:
		fmt.Printf("  %6d %s %-12s flag=0x%04x\n", i, pos, op.Kind, uint16(op.Flag))
	case domain.OpSetVariant:
		fmt.Printf("  %6d %s %-12s variant=%d\n", i, pos, op.Kind, op.Variant)
	case domain.OpDomainState:
		if op.Present {
			fmt.Printf("  %6d %s %-12s %s=(%.2f, %.2f)\n", i, pos, op.Kind, op.Domain, op.Value.A, op.Value.B)
		} else {
			fmt.Printf("  %6d %s %-12s %s снят\n", i, pos, op.Kind, op.Domain)
		}
	case domain.OpConflict:
		fmt.Printf("  %6d %s %-12s dropped=%s winner=%s\n", i, pos, op.Kind, op.Dropped, op.Winner)
	default:
		fmt.Printf("  %6d %s %s\n", i, pos, op.Kind)
	}
}

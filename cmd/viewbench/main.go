package main

import (
    "context"
    "fmt"
    "math"
    "math/rand"
    "os"
    "sort"
    "strconv"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/google/uuid"
    "github.com/redis/go-redis/v9"
    "gorm.io/driver/sqlite"
    "gorm.io/gorm"

    "github.com/d60-Lab/community/internal/cache"
    "github.com/d60-Lab/community/internal/model"
    "github.com/d60-Lab/community/internal/service"
)

func must[T any](v T, err error) T { if err != nil { panic(err) }; return v }

func mustDo(err error) { if err != nil { panic(err) } }

func pct(vs []time.Duration, p float64) time.Duration {
    if len(vs) == 0 { return 0 }
    xs := append([]time.Duration(nil), vs...)
    sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
    k := int(math.Ceil(p*float64(len(xs)))) - 1
    if k < 0 { k = 0 }
    if k >= len(xs) { k = len(xs)-1 }
    return xs[k]
}

func main() {
    ctx := context.Background()

    // params
    POSTS := 200             // distinct posts
    VIEWERS := 5000          // distinct viewer identities
    VIEWS := 100000          // total recordView calls
    CHUNK := 1000            // flush chunk size
    if s := os.Getenv("POSTS"); s != "" { if v, e := strconv.Atoi(s); e == nil && v > 0 { POSTS = v } }
    if s := os.Getenv("VIEWERS"); s != "" { if v, e := strconv.Atoi(s); e == nil && v > 0 { VIEWERS = v } }
    if s := os.Getenv("VIEWS"); s != "" { if v, e := strconv.Atoi(s); e == nil && v > 0 { VIEWS = v } }
    if s := os.Getenv("CHUNK"); s != "" { if v, e := strconv.Atoi(s); e == nil && v > 0 { CHUNK = v } }

    mr := must(miniredis.Run())
    defer mr.Close()
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    defer rdb.Close()

    db := must(gorm.Open(sqlite.Open(":memory:"), &gorm.Config{}))
    if err := db.AutoMigrate(&model.Post{}); err != nil { panic(err) }

    posts := make([]model.Post, POSTS)
    for i := range posts {
        posts[i] = model.Post{ID: uuid.NewString(), WriterID: "w", Title: fmt.Sprintf("post %d", i), Content: "x"}
    }
    mustDo(db.CreateInBatches(&posts, 500).Error)

    vc := cache.NewViewCache(rdb, 24*time.Hour)
    views := service.NewViewService(vc)
    flusher := service.NewViewFlusher(db, vc, CHUNK)

    lats := make([]time.Duration, 0, VIEWS)
    start := time.Now()
    for i := 0; i < VIEWS; i++ {
        p := posts[rand.Intn(POSTS)].ID
        v := fmt.Sprintf("viewer-%d", rand.Intn(VIEWERS))
        t0 := time.Now()
        if err := views.RecordView(ctx, p, v); err != nil { panic(err) }
        lats = append(lats, time.Since(t0))
    }
    recordDur := time.Since(start)

    t0 := time.Now()
    if err := flusher.Flush(ctx); err != nil { panic(err) }
    flushDur := time.Since(t0)

    var total int64
    mustDo(db.Model(&model.Post{}).Select("COALESCE(SUM(view_count),0)").Scan(&total).Error)

    fmt.Printf("recordView: n=%d total=%v avg=%v p50=%v p99=%v\n",
        VIEWS, recordDur, recordDur/time.Duration(VIEWS), pct(lats, 0.50), pct(lats, 0.99))
    fmt.Printf("flush: %v, durable view_count sum=%d (unique pairs)\n", flushDur, total)
}

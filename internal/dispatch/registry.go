package dispatch

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/azhengyongqin/forkhub/internal/model"
)

// Binding 工作项交给哪一类 worker 处理
type Binding string

const (
	BindingNone        Binding = ""
	BindingBackfill    Binding = "backfill"
	BindingBinaries    Binding = "binaries"
	BindingReleases    Binding = "releases"
	BindingPostProcess Binding = "postprocess"
)

// ErrInvalidColumn backfill 的 max 投影既不是列名也不是非负整数
var ErrInvalidColumn = errors.New("invalid backfill max column")

// StageFlags 后处理子阶段开关，按值传入 worker；一次调度至多一个为 true
type StageFlags struct {
	Additional bool
	NFO        bool
	Movies     bool
	TV         bool
}

// Count 已开启的子阶段数量
func (f StageFlags) Count() int {
	n := 0
	for _, on := range []bool{f.Additional, f.NFO, f.Movies, f.TV} {
		if on {
			n++
		}
	}
	return n
}

// Keywords 按 additional、nfo、movies、tv 的顺序返回已开启子阶段的脚本关键字
func (f StageFlags) Keywords() []string {
	var out []string
	if f.Additional {
		out = append(out, "additional")
	}
	if f.NFO {
		out = append(out, "nfo")
	}
	if f.Movies {
		out = append(out, "movies")
	}
	if f.TV {
		out = append(out, "tv")
	}
	return out
}

func (f StageFlags) String() string {
	kw := f.Keywords()
	if len(kw) == 0 {
		return "none"
	}
	return strings.Join(kw, ",")
}

// directKind 不进入进程池、在选择阶段直接执行的阶段
type directKind int

const (
	directNone directKind = iota
	directSharing
	directSingle
)

// queryBuilder 根据调度参数生成枚举 SQL
type queryBuilder func(options []string) (string, error)

// entry 一个阶段的路由
type entry struct {
	gate    GateFunc
	query   queryBuilder
	setting string
	binding Binding
	flag    func(*StageFlags)
	direct  directKind
}

var registry = map[model.WorkType]entry{
	model.WorkTypeBackfill: {
		query:   backfillQuery,
		setting: "backfillthreads",
		binding: BindingBackfill,
	},
	model.WorkTypeBinaries: {
		query:   static(`SELECT name FROM "groups" WHERE active = 1`),
		setting: "binarythreads",
		binding: BindingBinaries,
	},
	model.WorkTypeReleases: {
		query:   static(`SELECT name FROM "groups" WHERE (active = 1 OR backfill = 1)`),
		setting: "releasesthreads",
		binding: BindingReleases,
	},
	model.WorkTypePostProcessAmazonSingle: {
		direct: directSingle,
	},
	model.WorkTypePostProcessAdditional: {
		gate: CheckProcessAdditional,
		query: static(fmt.Sprintf(`SELECT DISTINCT(g.id) AS id
			FROM "groups" g
			INNER JOIN releases r ON r.group_id = g.id
			LEFT JOIN category c ON c.id = r.categoryid
			WHERE r.nzbstatus = %d
			AND r.passwordstatus BETWEEN -6 AND -1
			AND r.haspreview = -1
			AND c.disablepreview = 0`, NZBAdded)),
		setting: "maxaddprocessed",
		binding: BindingPostProcess,
		flag:    func(f *StageFlags) { f.Additional = true },
	},
	model.WorkTypePostProcessMovies: {
		gate: CheckProcessMovies,
		query: static(fmt.Sprintf(`SELECT DISTINCT(g.id) AS id
			FROM "groups" g
			INNER JOIN releases r ON r.group_id = g.id
			WHERE r.nzbstatus = %d
			AND r.imdbid IS NULL
			AND r.categoryid BETWEEN 2000 AND 2999`, NZBAdded)),
		setting: "maximdbprocessed",
		binding: BindingPostProcess,
		flag:    func(f *StageFlags) { f.Movies = true },
	},
	model.WorkTypePostProcessNfo: {
		gate: CheckProcessNfo,
		query: static(fmt.Sprintf(`SELECT DISTINCT(g.id) AS id
			FROM "groups" g
			INNER JOIN releases r ON r.group_id = g.id
			WHERE r.nzbstatus = %d
			AND r.nfostatus BETWEEN -6 AND -1`, NZBAdded)),
		setting: "maxnfoprocessed",
		binding: BindingPostProcess,
		flag:    func(f *StageFlags) { f.NFO = true },
	},
	model.WorkTypePostProcessSharing: {
		direct: directSharing,
	},
	model.WorkTypePostProcessTV: {
		gate: CheckProcessTV,
		query: static(fmt.Sprintf(`SELECT DISTINCT(g.id) AS id
			FROM "groups" g
			INNER JOIN releases r ON r.group_id = g.id
			WHERE r.nzbstatus = %d
			AND r.rageid = -1
			AND r.size > 1048576
			AND r.categoryid BETWEEN 5000 AND 5999`, NZBAdded)),
		setting: "maxrageprocessed",
		binding: BindingPostProcess,
		flag:    func(f *StageFlags) { f.TV = true },
	},
}

// SettingFor 返回阶段的并发度设置名，直接执行的阶段返回空字符串
func SettingFor(wt model.WorkType) string {
	return registry[wt].setting
}

func static(q string) queryBuilder {
	return func([]string) (string, error) { return q, nil }
}

var maxProjection = regexp.MustCompile(`^(?:[A-Za-z_][A-Za-z0-9_]*|[0-9]+)$`)

// backfillQuery options[0] 为列名或数值时作为 max 投影
func backfillQuery(options []string) (string, error) {
	col, ok := BackfillMax(options)
	if !ok {
		return `SELECT name FROM "groups" WHERE backfill = 1`, nil
	}
	if !maxProjection.MatchString(col) {
		return "", fmt.Errorf("%w: %q", ErrInvalidColumn, col)
	}
	return fmt.Sprintf(`SELECT name, %s AS max FROM "groups" WHERE backfill = 1`, col), nil
}

// BackfillMax 返回 options[0]；缺省、空串、"false"、"0" 视为未提供
func BackfillMax(options []string) (string, bool) {
	if len(options) == 0 {
		return "", false
	}
	v := strings.TrimSpace(options[0])
	switch strings.ToLower(v) {
	case "", "false", "0":
		return "", false
	}
	return v, true
}

// WorkTypeInfo 阶段路由摘要，供 API 与命令行展示
type WorkTypeInfo struct {
	WorkType model.WorkType `json:"work_type"`
	Setting  string         `json:"setting,omitempty"`
	Script   string         `json:"script,omitempty"`
	Flag     string         `json:"flag,omitempty"`
	Gated    bool           `json:"gated"`
	Direct   bool           `json:"direct"`
}

// Describe 按固定顺序列出全部阶段
func Describe() []WorkTypeInfo {
	out := make([]WorkTypeInfo, 0, len(registry))
	for _, wt := range model.AllWorkTypes() {
		e := registry[wt]
		info := WorkTypeInfo{
			WorkType: wt,
			Setting:  e.setting,
			Gated:    e.gate != nil,
			Direct:   e.direct != directNone,
		}
		switch e.binding {
		case BindingBackfill:
			info.Script = backfillScript
		case BindingBinaries:
			info.Script = binariesScript
		case BindingReleases:
			info.Script = releasesScript
		case BindingPostProcess:
			info.Script = postProcessScript
		}
		if e.direct != directNone {
			info.Script = postProcessScript
		}
		if e.flag != nil {
			var f StageFlags
			e.flag(&f)
			info.Flag = f.String()
		}
		out = append(out, info)
	}
	return out
}

// ValidateOptions 检查调度参数能否生成枚举 SQL
func ValidateOptions(wt model.WorkType, options []string) error {
	e, ok := registry[wt]
	if !ok {
		return fmt.Errorf("%w: %q", model.ErrUnknownWorkType, wt)
	}
	if e.query == nil {
		return nil
	}
	_, err := e.query(options)
	return err
}

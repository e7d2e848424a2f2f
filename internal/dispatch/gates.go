package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/azhengyongqin/forkhub/internal/gateway"
)

// release 状态常量
const (
	NZBAdded  = 1
	NFOUnproc = -1
)

// 功能开关设置名
const (
	SettingLookupIMDB    = "lookupimdb"
	SettingLookupNfo     = "lookupnfo"
	SettingLookupTVRage  = "lookuptvrage"
	SettingAlternateNNTP = "alternate_nntp"
)

var (
	additionalProbe = fmt.Sprintf(`SELECT r.id
		FROM releases r
		LEFT JOIN category c ON c.id = r.categoryid
		WHERE r.nzbstatus = %d
		AND r.passwordstatus BETWEEN -6 AND -1
		AND r.haspreview = -1
		AND c.disablepreview = 0
		LIMIT 1`, NZBAdded)

	moviesProbe = fmt.Sprintf(`SELECT id
		FROM releases
		WHERE nzbstatus = %d
		AND imdbid IS NULL
		AND categoryid BETWEEN 2000 AND 2999
		LIMIT 1`, NZBAdded)

	nfoProbe = fmt.Sprintf(`SELECT id FROM releases WHERE nzbstatus = %d AND nfostatus BETWEEN -1 AND %d LIMIT 1`,
		NZBAdded, NFOUnproc)

	tvProbe = fmt.Sprintf(`SELECT id
		FROM releases
		WHERE nzbstatus = %d
		AND size > 1048576
		AND rageid = -1
		AND categoryid BETWEEN 5000 AND 5999
		LIMIT 1`, NZBAdded)
)

// GateFunc 判断某个后处理阶段当前是否有待处理的 release
type GateFunc func(ctx context.Context, gw gateway.Gateway) (bool, error)

// CheckProcessAdditional 附加处理没有功能开关，总是探测
func CheckProcessAdditional(ctx context.Context, gw gateway.Gateway) (bool, error) {
	return probe(ctx, gw, additionalProbe)
}

// CheckProcessMovies lookupimdb 开启且存在未匹配 IMDB 的电影 release
func CheckProcessMovies(ctx context.Context, gw gateway.Gateway) (bool, error) {
	return gated(ctx, gw, SettingLookupIMDB, moviesProbe)
}

// CheckProcessNfo lookupnfo 开启且存在未处理 NFO 的 release
func CheckProcessNfo(ctx context.Context, gw gateway.Gateway) (bool, error) {
	return gated(ctx, gw, SettingLookupNfo, nfoProbe)
}

// CheckProcessTV lookuptvrage 开启且存在未匹配的电视 release
func CheckProcessTV(ctx context.Context, gw gateway.Gateway) (bool, error) {
	return gated(ctx, gw, SettingLookupTVRage, tvProbe)
}

func gated(ctx context.Context, gw gateway.Gateway, setting, query string) (bool, error) {
	on, err := settingEnabled(ctx, gw, setting)
	if err != nil || !on {
		return false, err
	}
	return probe(ctx, gw, query)
}

func probe(ctx context.Context, gw gateway.Gateway, query string) (bool, error) {
	_, ok, err := gw.QueryOneRow(ctx, query)
	if err != nil {
		return false, fmt.Errorf("probe releases: %w", err)
	}
	return ok, nil
}

// settingEnabled 设置值为 1 视为开启
func settingEnabled(ctx context.Context, gw gateway.Gateway, name string) (bool, error) {
	v, err := gw.GetSetting(ctx, name)
	if err != nil {
		return false, fmt.Errorf("read setting %s: %w", name, err)
	}
	return strings.TrimSpace(v) == "1", nil
}

package xsnow

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// 测试注入点
var osHostname = os.Hostname

// =============================================================================
// 环境变量
// =============================================================================

const (
	// EnvDatacenterID 数据中心 ID 环境变量（0-31，缺省 0）
	EnvDatacenterID = "XSNOW_DATACENTER_ID"

	// EnvWorkerID 工作节点 ID 环境变量（0-31，缺省 0）
	EnvWorkerID = "XSNOW_WORKER_ID"

	// EnvPodName K8s Pod 名称环境变量（通过 Downward API 注入）
	EnvPodName = "POD_NAME"

	// EnvHostname 主机名环境变量
	EnvHostname = "HOSTNAME"
)

// Identity 节点身份：(数据中心 ID, 工作节点 ID)。
//
// 集群内每个运行中的生成器必须持有不同的 Identity。
type Identity struct {
	DatacenterID int64 `koanf:"datacenter-id" json:"datacenter-id" yaml:"datacenter-id"`
	WorkerID     int64 `koanf:"worker-id" json:"worker-id" yaml:"worker-id"`
}

// Validate 校验两个分量都在 [0, 31] 内。
func (i Identity) Validate() error {
	if i.DatacenterID < 0 || i.DatacenterID > MaxDatacenterID {
		return fmt.Errorf("%w: datacenter id %d out of range [0, %d]", ErrInvalidIdentity, i.DatacenterID, MaxDatacenterID)
	}
	if i.WorkerID < 0 || i.WorkerID > MaxWorkerID {
		return fmt.Errorf("%w: worker id %d out of range [0, %d]", ErrInvalidIdentity, i.WorkerID, MaxWorkerID)
	}
	return nil
}

// String 返回 "dc-worker" 形式，用于日志与键名。
func (i Identity) String() string {
	return strconv.FormatInt(i.DatacenterID, 10) + "-" + strconv.FormatInt(i.WorkerID, 10)
}

// IdentityFromEnv 从 XSNOW_DATACENTER_ID、XSNOW_WORKER_ID 读取节点身份。
//
// 未设置的变量取 0；设置了但无法解析或越界时返回 [ErrInvalidIdentity]。
func IdentityFromEnv() (Identity, error) {
	dc, err := lookupIDEnv(EnvDatacenterID)
	if err != nil {
		return Identity{}, err
	}
	worker, err := lookupIDEnv(EnvWorkerID)
	if err != nil {
		return Identity{}, err
	}
	id := Identity{DatacenterID: dc, WorkerID: worker}
	if err := id.Validate(); err != nil {
		return Identity{}, err
	}
	return id, nil
}

// LookupIdentityEnv 与 IdentityFromEnv 相同，但额外报告每个变量是否被设置（空值视为未设置），
// 便于上层只覆盖显式给出的分量。
func LookupIdentityEnv() (id Identity, dcSet, workerSet bool, err error) {
	dcSet = strings.TrimSpace(os.Getenv(EnvDatacenterID)) != ""
	workerSet = strings.TrimSpace(os.Getenv(EnvWorkerID)) != ""
	id, err = IdentityFromEnv()
	return id, dcSet, workerSet, err
}

func lookupIDEnv(key string) (int64, error) {
	s, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(s) == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s value %q: %w", ErrInvalidIdentity, key, s, err)
	}
	return v, nil
}

// =============================================================================
// 工作节点 ID 推导（best-effort）
// =============================================================================

// WorkerIDFromName 将 Pod 名或主机名哈希折叠到 5 位。
//
// 32 个槽位下碰撞概率很高（8 个节点已超过 60%），只适合单机多进程调试
// 或配合 xclaim 检测冲突使用；生产环境应显式分配 XSNOW_WORKER_ID。
func WorkerIDFromName(name string) int64 {
	h := xxhash.Sum64String(name)
	// 逐段异或折叠全部 64 位
	var folded uint64
	for h != 0 {
		folded ^= h & uint64(MaxWorkerID)
		h >>= WorkerBits
	}
	return int64(folded)
}

// SuggestWorkerID 按 POD_NAME、HOSTNAME、os.Hostname() 的顺序取第一个非空名称，
// 返回其 WorkerIDFromName 结果与所用名称。
func SuggestWorkerID() (int64, string, error) {
	for _, key := range []string{EnvPodName, EnvHostname} {
		if name := os.Getenv(key); name != "" {
			return WorkerIDFromName(name), name, nil
		}
	}
	name, err := osHostname()
	if err != nil {
		return 0, "", fmt.Errorf("xsnow: resolve hostname: %w", err)
	}
	if name == "" {
		return 0, "", errors.New("xsnow: os.Hostname returned empty string")
	}
	return WorkerIDFromName(name), name, nil
}

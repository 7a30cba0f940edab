package xsnow

import (
	"errors"
	"fmt"
	"net"
	"net/netip"

	"go4.org/netipx"
)

// 测试注入点
var interfaceAddrs = net.InterfaceAddrs

// privateAddrs RFC 1918 与 RFC 4193 地址段
var privateAddrs = mustIPSet("10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16", "fc00::/7")

func mustIPSet(prefixes ...string) *netipx.IPSet {
	var b netipx.IPSetBuilder
	for _, p := range prefixes {
		b.AddPrefix(netip.MustParsePrefix(p))
	}
	set, err := b.IPSet()
	if err != nil {
		panic(err)
	}
	return set
}

// WorkerIDFromAddr 取地址最后一个字节的低 5 位。
//
// 同一 /27 内的节点互不冲突；跨网段部署时碰撞不可避免，需配合 xclaim 检测。
func WorkerIDFromAddr(addr netip.Addr) (int64, error) {
	if !addr.IsValid() {
		return 0, fmt.Errorf("%w: invalid address", ErrInvalidIdentity)
	}
	b := addr.Unmap().AsSlice()
	return int64(b[len(b)-1]) & MaxWorkerID, nil
}

// PrivateAddr 返回本机第一个私有地址，IPv4 优先。
func PrivateAddr() (netip.Addr, error) {
	addrs, err := interfaceAddrs()
	if err != nil {
		return netip.Addr{}, fmt.Errorf("xsnow: list interface addresses: %w", err)
	}
	if addr, ok := pickPrivate(addrs); ok {
		return addr, nil
	}
	return netip.Addr{}, errors.New("xsnow: no private address found")
}

func pickPrivate(addrs []net.Addr) (netip.Addr, bool) {
	var v6 netip.Addr
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		prefix, ok := netipx.FromStdIPNet(ipnet)
		if !ok {
			continue
		}
		ip := prefix.Addr().Unmap()
		if !privateAddrs.Contains(ip) {
			continue
		}
		if ip.Is4() {
			return ip, true
		}
		if !v6.IsValid() {
			v6 = ip
		}
	}
	return v6, v6.IsValid()
}

// SuggestWorkerIDFromAddr 对 PrivateAddr 的结果调用 WorkerIDFromAddr。
func SuggestWorkerIDFromAddr() (int64, netip.Addr, error) {
	addr, err := PrivateAddr()
	if err != nil {
		return 0, netip.Addr{}, err
	}
	worker, err := WorkerIDFromAddr(addr)
	if err != nil {
		return 0, netip.Addr{}, err
	}
	return worker, addr, nil
}

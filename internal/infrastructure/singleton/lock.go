// Package singleton 用固定端口做单实例锁
// 守护进程监听固定端口，第二个实例启动时探测 /health 即可判断去留
package singleton

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"time"
)

const (
	// DefaultPort 默认监听端口
	DefaultPort = ":19970"
	// healthProbeTimeout 健康探测超时
	healthProbeTimeout = 2 * time.Second
)

// CheckAndLock 尝试占用端口
// 端口空闲时返回 listener（调用方关闭后交给 HTTP 服务器实际监听）；
// 已有健康实例时返回 (nil, nil)，调用方应直接退出；
// 端口被占但健康探测失败时返回错误（残留进程或死锁）。
func CheckAndLock(port string) (net.Listener, error) {
	listener, err := net.Listen("tcp", port)
	if err == nil {
		return listener, nil
	}

	if !isAddrInUse(err) {
		return nil, fmt.Errorf("listen on %s: %w", port, err)
	}

	if isInstanceRunning(port) {
		return nil, nil
	}
	return nil, fmt.Errorf("port %s is taken but the occupant failed the health check", port)
}

// isAddrInUse 判断监听失败是否因为地址已被占用
func isAddrInUse(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.EADDRINUSE) {
		return true
	}
	// Windows 的 WSAEADDRINUSE 不在 syscall 常量里，退回错误码比较
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == 10048
	}
	return false
}

// isInstanceRunning 探测已占用端口上的实例是否健康
func isInstanceRunning(port string) bool {
	client := &http.Client{Timeout: healthProbeTimeout}

	resp, err := client.Get(fmt.Sprintf("http://localhost%s/health", port))
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

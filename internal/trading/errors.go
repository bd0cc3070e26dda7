package trading

import "github.com/pkg/errors"

// 错误分类，使用 errors.Is 判断
var (
	// ErrConfig 凭证缺失或配置错误
	ErrConfig = errors.New("trading: configuration error")
	// ErrValidation 下单参数不合法
	ErrValidation = errors.New("trading: invalid order request")
	// ErrBalance 余额查询失败（与真实的零余额区分）
	ErrBalance = errors.New("trading: balance query failed")
	// ErrOrderFailed 交易所拒绝或提交失败
	ErrOrderFailed = errors.New("trading: order failed")
)

// kindError 只有消息的分类错误
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string        { return e.msg }
func (e *kindError) Is(target error) bool { return target == e.kind }

// causeError 分类错误 + 底层原因，errors.Cause 可取到原因
type causeError struct {
	kind  error
	msg   string
	cause error
}

func (e *causeError) Error() string        { return e.msg + ": " + e.cause.Error() }
func (e *causeError) Is(target error) bool { return target == e.kind }
func (e *causeError) Unwrap() error        { return e.cause }
func (e *causeError) Cause() error         { return e.cause }

func configError(msg string) error     { return &kindError{kind: ErrConfig, msg: msg} }
func validationError(msg string) error { return &kindError{kind: ErrValidation, msg: msg} }

func wrapKind(kind error, cause error, msg string) error {
	if cause == nil {
		return &kindError{kind: kind, msg: msg}
	}
	return &causeError{kind: kind, msg: msg, cause: cause}
}

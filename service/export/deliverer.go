package export

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	dapr "github.com/dapr/go-sdk/client"
)

// Deliverer 报表投递
type Deliverer interface {
	Deliver(ctx context.Context, file *File, recipients []string, subject string) error
}

// bindingInvoker Dapr 输出绑定，dapr.Client 满足该接口
type bindingInvoker interface {
	InvokeOutputBinding(ctx context.Context, in *dapr.InvokeBindingRequest) error
}

// DaprMailDeliverer 通过 Dapr 输出绑定发送邮件，附件以 base64 放在消息体中
type DaprMailDeliverer struct {
	client  bindingInvoker
	binding string
	from    string
}

// NewDaprMailDeliverer 创建邮件投递
func NewDaprMailDeliverer(client bindingInvoker, binding, from string) *DaprMailDeliverer {
	return &DaprMailDeliverer{client: client, binding: binding, from: from}
}

type mailMessage struct {
	Subject    string   `json:"subject"`
	Recipients []string `json:"recipients"`
	Body       string   `json:"body"`
	Attachment struct {
		Name        string `json:"name"`
		ContentType string `json:"content_type"`
		Content     string `json:"content"`
	} `json:"attachment"`
}

// Deliver 投递文件
func (d *DaprMailDeliverer) Deliver(ctx context.Context, file *File, recipients []string, subject string) error {
	if len(recipients) == 0 {
		return nil
	}
	msg := mailMessage{
		Subject:    subject,
		Recipients: recipients,
		Body:       fmt.Sprintf("附件为 %s，请查收。", file.Name),
	}
	msg.Attachment.Name = file.Name
	msg.Attachment.ContentType = file.ContentType
	msg.Attachment.Content = base64.StdEncoding.EncodeToString(file.Content)

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("序列化邮件失败: %w", err)
	}
	err = d.client.InvokeOutputBinding(ctx, &dapr.InvokeBindingRequest{
		Name:      d.binding,
		Operation: "create",
		Data:      data,
		Metadata: map[string]string{
			"emailTo":   strings.Join(recipients, ","),
			"emailFrom": d.from,
			"subject":   subject,
		},
	})
	if err != nil {
		return fmt.Errorf("邮件投递失败: %w", err)
	}
	slog.Info("报表已投递", "file", file.Name, "recipients", len(recipients))
	return nil
}

// LogDeliverer 只记录日志，用于未配置邮件绑定的环境
type LogDeliverer struct{}

func (LogDeliverer) Deliver(_ context.Context, file *File, recipients []string, subject string) error {
	slog.Info("未配置投递通道，跳过发送", "file", file.Name, "recipients", recipients, "subject", subject)
	return nil
}

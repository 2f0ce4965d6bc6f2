package cmd

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"wxadapter/tools/randutil"
	"wxadapter/wechat/pkg/signature"
)

var (
	signToken     string
	signTimestamp string
	signNonce     string
	signEncrypt   string
)

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Print webhook query parameters signed with the given token",
	Long: `sign computes the signature query parameter the platform attaches to
webhook requests, for testing the server with curl. With --encrypt it also
prints msg_signature for an encrypted envelope.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if signTimestamp == "" {
			signTimestamp = strconv.FormatInt(time.Now().Unix(), 10)
		}
		if signNonce == "" {
			signNonce = randutil.GenerateRandomString(10)
		}

		q := url.Values{}
		q.Set("signature", signature.Compute(signToken, signTimestamp, signNonce))
		q.Set("timestamp", signTimestamp)
		q.Set("nonce", signNonce)
		if signEncrypt != "" {
			q.Set("encrypt_type", "aes")
			q.Set("msg_signature", signature.Compute(signToken, signTimestamp, signNonce, signEncrypt))
		}
		fmt.Fprintln(cmd.OutOrStdout(), q.Encode())
		return nil
	},
}

func init() {
	signCmd.Flags().StringVar(&signToken, "token", "", "webhook token")
	signCmd.Flags().StringVar(&signTimestamp, "timestamp", "", "unix timestamp, defaults to now")
	signCmd.Flags().StringVar(&signNonce, "nonce", "", "nonce, random when empty")
	signCmd.Flags().StringVar(&signEncrypt, "encrypt", "", "Encrypt field of an encrypted envelope")
	_ = signCmd.MarkFlagRequired("token")
	rootCmd.AddCommand(signCmd)
}
